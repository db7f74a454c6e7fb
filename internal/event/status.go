package event

// Status is the overall result of a job.
type Status int

const (
	// StatusSuccess means every entry was processed without error.
	StatusSuccess Status = iota
	// StatusCompletedWithErrors means the job ran to the end but some entries failed.
	StatusCompletedWithErrors
	// StatusFailed means the job aborted on a fatal error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCompletedWithErrors:
		return "completed with errors"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status for JSON and YAML reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}
