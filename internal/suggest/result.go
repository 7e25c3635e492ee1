package suggest

import (
	"fmt"

	"github.com/sells-group/hospital-siting/internal/model"
)

// Status distinguishes a run that produced suggestions from one in which no
// candidate qualified.
type Status string

// Result statuses.
const (
	StatusOK                     Status = "ok"
	StatusNoQualifyingCandidates Status = "no_qualifying_candidates"
)

// Result is the outcome of one selection run.
type Result struct {
	Status      Status             `json:"status"`
	Strategy    string             `json:"strategy"`
	Suggestions []model.Suggestion `json:"suggestions"`
	// Ranked holds every qualifying candidate in rank order.
	Ranked []model.CandidatePoint `json:"-"`

	Evaluated int `json:"evaluated"`
	Qualified int `json:"qualified"`
	Excluded  int `json:"excluded"`
}

// Err returns model.ErrNoQualifyingCandidates for an empty result and nil
// otherwise. It is a soft outcome; callers that only need to print a message
// can compare Status instead.
func (r *Result) Err() error {
	if r == nil || r.Status == StatusNoQualifyingCandidates {
		return model.ErrNoQualifyingCandidates
	}
	return nil
}

// String returns a one-line summary.
func (r *Result) String() string {
	return fmt.Sprintf("strategy=%s status=%s suggestions=%d evaluated=%d qualified=%d excluded=%d",
		r.Strategy, r.Status, len(r.Suggestions), r.Evaluated, r.Qualified, r.Excluded)
}
