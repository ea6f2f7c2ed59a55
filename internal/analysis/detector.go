package analysis

// Detector reclassifies rows of a listing. Detectors never change offsets or
// raw values; they only adjust category, description and assembly text.
type Detector interface {
	Detect(rows []Row) []Row
}

// DetectorChain runs multiple detectors in sequence
type DetectorChain struct {
	detectors []Detector
}

// NewDetectorChain creates a new detector chain
func NewDetectorChain(detectors ...Detector) *DetectorChain {
	return &DetectorChain{
		detectors: detectors,
	}
}

// Detect runs all detectors in sequence
func (dc *DetectorChain) Detect(rows []Row) []Row {
	result := rows
	for _, detector := range dc.detectors {
		result = detector.Detect(result)
	}
	return result
}

// Len returns the number of detectors in the chain.
func (dc *DetectorChain) Len() int {
	return len(dc.detectors)
}
