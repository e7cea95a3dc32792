package pipeline

import "github.com/JaimeStill/bluecite/internal/rules"

// Summary aggregates a batch of reports.
type Summary struct {
	Total               int                    `json:"total"`
	Processed           int                    `json:"processed"`
	Skipped             int                    `json:"skipped"`
	Valid               int                    `json:"valid"`
	Invalid             int                    `json:"invalid"`
	StageExits          map[State]int          `json:"stage_exits"`
	EvidenceFailures    int                    `json:"evidence_failures"`
	EvidenceFailureRate float64                `json:"evidence_failure_rate"`
	ServiceFailures     int                    `json:"service_failures"`
	RetrievalDegraded   int                    `json:"retrieval_degraded"`
	NeedsReview         int                    `json:"needs_review"`
	Coverage            []rules.BucketCoverage `json:"coverage"`
	ElapsedMS           int64                  `json:"elapsed_ms"`
}

// Summarize computes batch statistics. Reports are read, never modified.
func Summarize(reports []Report, skipped int) Summary {
	s := Summary{
		Total:      len(reports) + skipped,
		Processed:  len(reports),
		Skipped:    skipped,
		StageExits: make(map[State]int, len(ExitStates)),
		Coverage:   make([]rules.BucketCoverage, len(rules.Priority)),
	}

	for _, st := range ExitStates {
		s.StageExits[st] = 0
	}
	for i, b := range rules.Priority {
		s.Coverage[i].Bucket = b
	}

	for i := range reports {
		r := &reports[i]

		if r.IsValid() {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.StageExits[r.StageAtExit]++

		if r.EvidenceFailed() {
			s.EvidenceFailures++
		}
		if r.FinalResult.ServiceFailed() {
			s.ServiceFailures++
		}
		if r.RetrievalDegraded {
			s.RetrievalDegraded++
		}
		if r.NeedsReview {
			s.NeedsReview++
		}

		if r.Coverage != nil {
			addCoverage(s.Coverage, r.Coverage.Buckets)
		}
	}

	if s.Processed > 0 {
		s.EvidenceFailureRate = float64(s.EvidenceFailures) / float64(s.Processed)
	}

	return s
}

func addCoverage(totals []rules.BucketCoverage, buckets []rules.BucketCoverage) {
	for _, b := range buckets {
		for i := range totals {
			if totals[i].Bucket == b.Bucket {
				totals[i].Scanned += b.Scanned
				totals[i].Matched += b.Matched
				totals[i].Returned += b.Returned
			}
		}
	}
}
