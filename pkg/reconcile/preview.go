package reconcile

import (
	"context"

	"github.com/jingkaihe/skillchef/pkg/diff"
	"github.com/jingkaihe/skillchef/pkg/merge"
	"github.com/jingkaihe/skillchef/pkg/store"
)

// Preview is what a sync of one skill would find, without any prompt or
// write.
type Preview struct {
	Skill   string
	Outcome Outcome
	// Branch is only meaningful when Changed is true.
	Branch  merge.Branch
	Changed bool
	Summary string
	// Upstream is the diff from the current base to the fetched source.
	Upstream []string
}

// Preview fetches and classifies meta the way SyncOne does and stops before
// the first prompt.
func (r *Reconciler) Preview(ctx context.Context, meta *store.Meta) (Preview, error) {
	p := Preview{Skill: meta.Name}

	s, outcome, err := r.load(ctx, meta)
	defer s.cleanup(ctx)
	if err != nil {
		return p, err
	}
	if s == nil {
		p.Outcome = outcome
		return p, nil
	}

	p.Changed = true
	p.Branch = s.branch
	p.Summary = merge.ThreeWaySummary(s.oldBase, s.newRemote, s.flavor)
	p.Upstream = diff.DiffTexts(s.oldBase, s.newRemote, "base (current)", "remote (new)")
	return p, nil
}
