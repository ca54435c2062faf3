package reconcile

import "fmt"

// Outcome is the terminal state of one skill's sync.
type Outcome int

// Sync outcomes
const (
	OutcomeUpToDate Outcome = iota
	OutcomeFetchFailed
	OutcomeUpdated
	OutcomeSkipped
	OutcomeAIMerged
	OutcomeRebased
	OutcomeKept
	OutcomeManuallyMerged
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up to date"
	case OutcomeFetchFailed:
		return "fetch failed"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAIMerged:
		return "AI merged"
	case OutcomeRebased:
		return "rebased with flavor"
	case OutcomeKept:
		return "kept current"
	case OutcomeManuallyMerged:
		return "manually merged"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Changed reports whether the outcome replaced the skill's base snapshot.
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeUpdated, OutcomeAIMerged, OutcomeRebased, OutcomeManuallyMerged:
		return true
	default:
		return false
	}
}

// Result is the outcome of one skill in a run.
type Result struct {
	Skill   string
	Outcome Outcome
	Err     error
}

// Report summarises a multi-skill run.
type Report struct {
	RunID   string
	Results []Result
}

// Count returns how many skills ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Summary is a one-line description of the run, e.g. "3 skills: 2 up to date, 1 updated".
func (r Report) Summary() string {
	noun := "skills"
	if len(r.Results) == 1 {
		noun = "skill"
	}
	s := fmt.Sprintf("%d %s", len(r.Results), noun)

	sep := ": "
	for o := OutcomeUpToDate; o <= OutcomeFailed; o++ {
		if n := r.Count(o); n > 0 {
			s += fmt.Sprintf("%s%d %s", sep, n, o)
			sep = ", "
		}
	}
	return s
}
