package issues

import "fmt"

// Reason identifies why an issue was not converted.
type Reason string

const (
	ReasonResolutionMissing   Reason = "resolution missing"
	ReasonResolutionDuplicate Reason = "resolution duplicate"
	ReasonTypeMissing         Reason = "type missing"
	ReasonTypeDuplicate       Reason = "type duplicate"
	ReasonInvalidResolution   Reason = "invalid resolution"
	ReasonInvalidType         Reason = "invalid type"
)

// Skip records one problem found on an issue. An issue failing both arity
// checks produces two skips but counts once.
type Skip struct {
	Number int
	Reason Reason
	// Value is the unrecognised symbol for the invalid-value reasons.
	Value string
}

func (s Skip) String() string {
	switch s.Reason {
	case ReasonResolutionMissing:
		return fmt.Sprintf("issue #%d has no resolution label", s.Number)
	case ReasonResolutionDuplicate:
		return fmt.Sprintf("issue #%d has more than one resolution label", s.Number)
	case ReasonTypeMissing:
		return fmt.Sprintf("issue #%d has no type label", s.Number)
	case ReasonTypeDuplicate:
		return fmt.Sprintf("issue #%d has more than one type label", s.Number)
	case ReasonInvalidResolution:
		return fmt.Sprintf("issue #%d has unrecognized resolution %q", s.Number, s.Value)
	case ReasonInvalidType:
		return fmt.Sprintf("issue #%d has unrecognized type %q", s.Number, s.Value)
	default:
		return fmt.Sprintf("issue #%d skipped: %s", s.Number, s.Reason)
	}
}

// SkipFunc receives each skip as soon as it is found.
type SkipFunc func(Skip)

// BatchSkippedError is returned by ConvertAll when at least one issue could
// not be converted.
type BatchSkippedError struct {
	// Count is the number of skipped issues.
	Count int
	Skips []Skip
}

func (e *BatchSkippedError) Error() string {
	if e.Count == 1 {
		return "1 issue was skipped"
	}
	return fmt.Sprintf("%d issues were skipped", e.Count)
}

