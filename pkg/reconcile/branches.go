package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/diff"
	"github.com/jingkaihe/skillchef/pkg/llm"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/merge"
	"github.com/jingkaihe/skillchef/pkg/skills"
)

// Choices offered by the flavored branches.
const (
	ChoiceAcceptAI     = "accept ai merge"
	ChoiceChat         = "resolve with chat"
	ChoiceAcceptUpdate = "accept + re-apply flavor"
	ChoiceKeep         = "keep current"
	ChoiceManual       = "manual edit"
)

const waitMessage = "Waiting for AI merge proposal... (esc to stop waiting)"

// syncNoFlavor handles a skill without flavor: the update is accepted or
// rejected as a whole.
func (r *Reconciler) syncNoFlavor(ctx context.Context, s *syncState) (Outcome, error) {
	name := s.meta.Name
	r.ui.ShowDiff("Upstream changes", diff.DiffTexts(s.oldBase, s.newRemote, "base (current)", "remote (new)"))

	ok, err := r.ui.Confirm("Accept update?", true)
	if err != nil {
		return OutcomeFailed, err
	}
	if !ok {
		r.ui.Info(fmt.Sprintf("  %s: skipped", name))
		return OutcomeSkipped, nil
	}

	if err := r.acceptUpdate(ctx, s); err != nil {
		return OutcomeFailed, err
	}
	r.ui.Success(fmt.Sprintf("  %s: updated", name))
	return OutcomeUpdated, nil
}

// syncNoConflict handles a flavored skill whose live document differs from
// base only in its Local Flavor section. The deterministic rebase is
// proposed; an AI merge, when enabled, only serves as a semantic check.
func (r *Reconciler) syncNoConflict(ctx context.Context, s *syncState) (Outcome, error) {
	name := s.meta.Name

	flavor, diverged := merge.EffectiveFlavor(s.live, s.flavor)
	if diverged {
		if err := r.store.WriteFlavor(name, skills.EnsureNewline(flavor)); err != nil {
			return OutcomeFailed, err
		}
		r.ui.Info("  Flavor was edited in the live skill; saved it to the flavor file")
	}
	s.flavor = flavor

	task := r.startMerge(ctx, s, "")

	r.ui.ShowDiff("Upstream changes", diff.DiffTexts(s.oldBase, s.newRemote, "base (current)", "remote (new)"))
	proposal := merge.MergeSkillText(s.newRemote, flavor)
	r.ui.ShowDiff("Proposed update", diff.DiffTexts(s.live, proposal, "current", "proposed"))

	choices := []string{ChoiceAcceptUpdate, ChoiceKeep, ChoiceManual}
	aiText := r.awaitProposal(ctx, task)
	switch {
	case aiText == "":
	case merge.SameDocument(aiText, proposal):
		r.ui.Info("  AI check: no semantic conflicts detected")
		aiText = ""
	default:
		r.ui.Info("AI proposed a different merge:")
		r.ui.ShowDiff("AI proposal", diff.DiffTexts(s.live, aiText, "current", "ai proposed"))
		choices = append([]string{ChoiceAcceptAI}, choices...)
	}

	action, err := r.ui.Choose("How to handle?", choices)
	if err != nil {
		return OutcomeFailed, err
	}
	return r.apply(ctx, s, action, aiText)
}

// syncConflict handles a flavored skill whose live document was edited
// outside its Local Flavor section. The user resolves it in a loop that can
// ask the AI for new proposals.
func (r *Reconciler) syncConflict(ctx context.Context, s *syncState) (Outcome, error) {
	name := s.meta.Name

	r.ui.Warning(fmt.Sprintf("  %s has local edits outside its flavor", name))
	r.ui.ShowDiff("Local edits", diff.DiffTexts(s.oldBase, skills.StripLocalFlavorSection(s.live), "base (current)", "live (edited)"))
	r.ui.ShowDiff("Upstream changes", diff.DiffTexts(s.oldBase, s.newRemote, "base (current)", "remote (new)"))

	proposal := r.awaitProposal(ctx, r.startMerge(ctx, s, ""))

	for {
		if proposal != "" {
			r.ui.Info("AI proposed a semantic merge:")
			r.ui.ShowDiff("AI proposal", diff.DiffTexts(s.live, proposal, "current", "ai proposed"))
		}

		var choices []string
		if proposal != "" {
			choices = append(choices, ChoiceAcceptAI)
		}
		if r.AIEnabled() {
			choices = append(choices, ChoiceChat)
		}
		choices = append(choices, ChoiceAcceptUpdate, ChoiceKeep, ChoiceManual)

		action, err := r.ui.Choose("How to handle?", choices)
		if err != nil {
			return OutcomeFailed, err
		}
		if action != ChoiceChat {
			return r.apply(ctx, s, action, proposal)
		}

		instruction, err := r.ui.Ask("What should the merge do differently?", "")
		if err != nil {
			return OutcomeFailed, err
		}
		instruction = strings.TrimSpace(instruction)
		if instruction == "" {
			r.ui.Info("  No instruction given")
			continue
		}
		logger.G(ctx).WithField("instruction", instruction).Debug("re-running AI merge")
		proposal = r.awaitProposal(ctx, r.startMerge(ctx, s, instruction))
	}
}

// apply carries out a terminal choice of the flavored branches.
func (r *Reconciler) apply(ctx context.Context, s *syncState, action, aiText string) (Outcome, error) {
	name := s.meta.Name

	switch action {
	case ChoiceAcceptAI:
		if aiText == "" {
			return OutcomeFailed, errors.New("no AI merge to accept")
		}
		if err := r.store.UpdateBase(name, s.fetched.Dir); err != nil {
			return OutcomeFailed, err
		}
		if err := r.store.WriteLive(name, skills.EnsureNewline(aiText)); err != nil {
			return OutcomeFailed, err
		}
		r.updateSource(ctx, s)
		r.ui.Success(fmt.Sprintf("  %s: AI merged", name))
		return OutcomeAIMerged, nil

	case ChoiceAcceptUpdate:
		if err := r.acceptUpdate(ctx, s); err != nil {
			return OutcomeFailed, err
		}
		r.ui.Success(fmt.Sprintf("  %s: rebased with flavor", name))
		return OutcomeRebased, nil

	case ChoiceKeep:
		r.ui.Info(fmt.Sprintf("  %s: kept current", name))
		return OutcomeKept, nil

	case ChoiceManual:
		if err := r.acceptUpdate(ctx, s); err != nil {
			return OutcomeFailed, err
		}
		path := r.store.LiveSkillPath(name)
		switch {
		case r.editor == nil:
			r.ui.Warning(fmt.Sprintf("  No editor configured; edit %s by hand", path))
		default:
			if err := r.editor.Open(ctx, path); err != nil {
				logger.G(ctx).WithError(err).Warn("editor failed")
				r.ui.Warning(fmt.Sprintf("  Could not open editor: %v; edit %s by hand", err, path))
			}
		}
		r.ui.Success(fmt.Sprintf("  %s: manually merged", name))
		return OutcomeManuallyMerged, nil
	}

	return OutcomeFailed, errors.Errorf("unknown action %q", action)
}

// acceptUpdate replaces base with the fetched snapshot and rebuilds live from
// it and the flavor file.
func (r *Reconciler) acceptUpdate(ctx context.Context, s *syncState) error {
	if err := r.store.UpdateBase(s.meta.Name, s.fetched.Dir); err != nil {
		return err
	}
	if err := r.store.RebuildLive(s.meta.Name); err != nil {
		return err
	}
	r.updateSource(ctx, s)
	return nil
}

func (r *Reconciler) updateSource(ctx context.Context, s *syncState) {
	resolver, ok := r.fetcher.(SourceResolver)
	if !ok {
		return
	}
	src := resolver.SourceMetadata(ctx, s.meta.RemoteURL, s.fetched.Kind)
	if err := r.store.UpdateSource(s.meta.Name, src); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record source metadata")
	}
}

// startMerge submits an AI merge, or returns nil when AI is disabled.
func (r *Reconciler) startMerge(ctx context.Context, s *syncState, instruction string) *Task {
	if !r.AIEnabled() {
		return nil
	}
	req := llm.MergeRequest{
		OldBase:     s.oldBase,
		NewRemote:   s.newRemote,
		Flavor:      s.flavor,
		CurrentLive: s.live,
		Instruction: instruction,
	}
	return StartTask(ctx, r.mergeTimeout, func(ctx context.Context) (string, error) {
		return r.merger.Merge(ctx, req)
	})
}

// awaitProposal polls task until it finishes, the merge timeout passes or the
// user stops waiting. A failed or abandoned task yields "". The task is left
// to finish in the background.
func (r *Reconciler) awaitProposal(ctx context.Context, task *Task) string {
	if task == nil {
		return ""
	}
	log := logger.G(ctx)

	waiter := r.ui.Wait(waitMessage)
	defer waiter.Stop()

	deadline := time.Now().Add(r.mergeTimeout)
	for !task.Poll(r.pollInterval) {
		if time.Now().After(deadline) {
			log.WithField("timeout", r.mergeTimeout).Warn("AI merge timed out")
			r.ui.Warning(fmt.Sprintf("  AI merge timed out after %s", r.mergeTimeout))
			return ""
		}
		select {
		case <-waiter.Cancelled():
			log.Info("stopped waiting for AI merge proposal")
			r.ui.Warning("  Stopped waiting for the AI merge proposal")
			return ""
		case <-ctx.Done():
			log.WithError(ctx.Err()).Info("stopped waiting for AI merge proposal")
			return ""
		default:
		}
	}

	text, err := task.Result()
	if err != nil {
		log.WithError(err).Warn("AI merge failed")
		r.ui.Warning(fmt.Sprintf("  AI merge failed: %v", err))
		return ""
	}
	return text
}
