package models

import "fmt"

// BatchSummary accumulates counters over one batch run. Malformed input
// is counted here, never raised; the error sample is bounded so a fully
// corrupt input file cannot balloon memory.
type BatchSummary struct {
	Processed           int
	Valid               int
	Skipped             int
	Duplicates          int
	Matched             int
	Unmatched           int
	InvariantViolations int
	BySource            map[string]int
	Errors              []string
	maxErrors           int
}

// NewBatchSummary returns a summary retaining at most maxErrors messages.
func NewBatchSummary(maxErrors int) *BatchSummary {
	if maxErrors <= 0 {
		maxErrors = 25
	}
	return &BatchSummary{
		BySource:  make(map[string]int),
		maxErrors: maxErrors,
	}
}

// RecordError counts a per-record failure, keeping the message only while
// the sample has room.
func (s *BatchSummary) RecordError(format string, args ...any) {
	s.Skipped++
	if len(s.Errors) < s.maxErrors {
		s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
	}
}

// CountSource bumps the per-source counter.
func (s *BatchSummary) CountSource(source string) {
	s.BySource[source]++
}

func (s *BatchSummary) String() string {
	return fmt.Sprintf("processed=%d valid=%d skipped=%d duplicates=%d matched=%d unmatched=%d invariant_violations=%d",
		s.Processed, s.Valid, s.Skipped, s.Duplicates, s.Matched, s.Unmatched, s.InvariantViolations)
}
