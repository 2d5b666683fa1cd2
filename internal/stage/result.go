package stage

import "time"

// Status is the outcome of one unit of work (a group, a row, a movie).
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result records what happened to one output.
type Result struct {
	Name     string
	Output   string
	Status   Status
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Summary collects results in processing order.
type Summary struct {
	Stage   string
	Written []Result
	Skipped []Result
	Failed  []Result
}

// Add files r under its status.
func (s *Summary) Add(r Result) {
	switch r.Status {
	case StatusWritten:
		s.Written = append(s.Written, r)
	case StatusSkipped:
		s.Skipped = append(s.Skipped, r)
	default:
		s.Failed = append(s.Failed, r)
	}
}

// Total is the number of recorded results.
func (s Summary) Total() int {
	return len(s.Written) + len(s.Skipped) + len(s.Failed)
}

// Bytes sums the sizes of written outputs.
func (s Summary) Bytes() int64 {
	var total int64
	for _, r := range s.Written {
		total += r.Bytes
	}
	return total
}
