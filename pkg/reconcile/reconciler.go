// Package reconcile syncs cooked skills with their upstream sources.
//
// For every skill the Reconciler fetches the source, compares its hash with
// the stored base, and when upstream changed picks one of three branches:
// no flavor (plain accept or reject), no conflict (re-apply the flavor on the
// new base) or conflict (live was edited outside the Local Flavor section and
// the user resolves it, optionally with an AI proposal).
package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillchef/pkg/journal"
	"github.com/jingkaihe/skillchef/pkg/llm"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/merge"
	"github.com/jingkaihe/skillchef/pkg/presenter"
	"github.com/jingkaihe/skillchef/pkg/remote"
	"github.com/jingkaihe/skillchef/pkg/skills"
	"github.com/jingkaihe/skillchef/pkg/store"
	"github.com/jingkaihe/skillchef/pkg/telemetry"
)

// DefaultPollInterval is how long each wait for an AI proposal blocks before
// checking for a cancel request.
const DefaultPollInterval = 50 * time.Millisecond

// DefaultMergeTimeout bounds how long a single AI merge may take.
const DefaultMergeTimeout = 60 * time.Second

// Store is the part of the skill store the reconciler reads and writes.
type Store interface {
	BaseSkillText(name string) (string, error)
	LiveSkillText(name string) (string, error)
	LiveSkillPath(name string) string
	HasFlavor(name string) bool
	ReadFlavor(name string) (string, error)
	WriteFlavor(name, text string) error
	UpdateBase(name, fetchedDir string) error
	UpdateSource(name string, src store.Source) error
	RebuildLive(name string) error
	WriteLive(name, text string) error
}

// Fetcher downloads a skill source into a scratch directory.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*remote.Fetched, error)
}

// SourceResolver is implemented by fetchers that can describe where a
// fetched snapshot came from.
type SourceResolver interface {
	SourceMetadata(ctx context.Context, source string, kind remote.Kind) store.Source
}

// Editor opens a file for hand editing and returns when the user is done.
type Editor interface {
	Open(ctx context.Context, path string) error
}

// Journal records sync outcomes.
type Journal interface {
	Record(ctx context.Context, e journal.Event) error
}

// Reconciler drives the sync of one or more skills.
type Reconciler struct {
	store   Store
	fetcher Fetcher
	merger  llm.Merger
	ui      presenter.Presenter
	editor  Editor
	journal Journal

	aiEnabled    bool
	pollInterval time.Duration
	mergeTimeout time.Duration
	runID        string
	model        string
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithAI turns AI proposals on or off. They are on by default when a merger
// is given.
func WithAI(enabled bool) Option {
	return func(r *Reconciler) {
		r.aiEnabled = enabled
	}
}

// WithPollInterval sets how often the wait for an AI proposal checks for a
// cancel request.
func WithPollInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMergeTimeout sets how long to wait for an AI proposal before giving up
// on it.
func WithMergeTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.mergeTimeout = d
		}
	}
}

// WithJournal records every outcome in j.
func WithJournal(j Journal) Option {
	return func(r *Reconciler) {
		r.journal = j
	}
}

// WithRunID sets the identifier shared by all outcomes of this run.
func WithRunID(id string) Option {
	return func(r *Reconciler) {
		r.runID = id
	}
}

// WithModel names the model behind the merger, for the journal.
func WithModel(model string) Option {
	return func(r *Reconciler) {
		r.model = model
	}
}

// New creates a Reconciler. merger and editor may be nil.
func New(st Store, fetcher Fetcher, merger llm.Merger, ui presenter.Presenter, editor Editor, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:        st,
		fetcher:      fetcher,
		merger:       merger,
		ui:           ui,
		editor:       editor,
		aiEnabled:    merger != nil,
		pollInterval: DefaultPollInterval,
		mergeTimeout: DefaultMergeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = journal.NewRunID()
	}
	return r
}

// RunID returns the identifier of this run.
func (r *Reconciler) RunID() string {
	return r.runID
}

// AIEnabled reports whether AI proposals will be requested.
func (r *Reconciler) AIEnabled() bool {
	return r.aiEnabled && r.merger != nil
}

// SyncAll syncs metas one after another in the given order. A failing skill
// is reported and the run continues with the next one; the failures are
// returned together. An aborted prompt stops the run.
func (r *Reconciler) SyncAll(ctx context.Context, metas []*store.Meta) (Report, error) {
	report := Report{RunID: r.runID}
	var result *multierror.Error

	for _, meta := range metas {
		outcome, err := r.SyncOne(ctx, meta)
		if err != nil {
			r.ui.Error(err, fmt.Sprintf("sync %s", meta.Name))
			result = multierror.Append(result, errors.Wrapf(err, "sync %s", meta.Name))
			report.Results = append(report.Results, Result{Skill: meta.Name, Outcome: OutcomeFailed, Err: err})
			if errors.Is(err, presenter.ErrAborted) || ctx.Err() != nil {
				break
			}
			continue
		}
		report.Results = append(report.Results, Result{Skill: meta.Name, Outcome: outcome})
	}

	return report, result.ErrorOrNil()
}

// SyncOne syncs a single skill. Fetch failures are reported as warnings and
// end the sync with OutcomeFetchFailed and no error; a missing base or live
// document is returned as an error.
func (r *Reconciler) SyncOne(ctx context.Context, meta *store.Meta) (Outcome, error) {
	ctx = logger.WithFields(ctx, logrus.Fields{"skill": meta.Name, "run_id": r.runID})

	var s *syncState
	outcome := OutcomeFailed
	err := telemetry.WithSpan(ctx, "reconcile.sync_one", func(ctx context.Context) error {
		var err error
		s, outcome, err = r.syncOne(ctx, meta)
		if s != nil && s.classified {
			telemetry.SetAttributes(ctx, attribute.String("skill.branch", s.branch.String()))
		}
		telemetry.SetAttributes(ctx, attribute.String("skill.outcome", outcome.String()))
		return err
	}, attribute.String("skill.name", meta.Name), attribute.String("run.id", r.runID))
	if err != nil {
		outcome = OutcomeFailed
	}

	r.record(ctx, meta, s, outcome, err)
	return outcome, err
}

// syncState carries what is known about one skill during its sync.
type syncState struct {
	meta       *store.Meta
	fetched    *remote.Fetched
	newHash    string
	oldBase    string
	newRemote  string
	live       string
	flavor     string
	branch     merge.Branch
	classified bool
}

func (s *syncState) cleanup(ctx context.Context) {
	if s == nil || s.fetched == nil {
		return
	}
	if err := s.fetched.Cleanup(); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to remove scratch directory")
	}
}

// load fetches the source of meta, compares it with the base and classifies
// the skill. It returns a nil state when the sync is already over: the fetch
// failed or the skill is up to date. Otherwise the caller owns the state and
// must clean it up.
func (r *Reconciler) load(ctx context.Context, meta *store.Meta) (*syncState, Outcome, error) {
	name := meta.Name
	log := logger.G(ctx)

	fetched, err := r.fetcher.Fetch(ctx, meta.RemoteURL)
	if err != nil {
		log.WithError(err).Warn("fetch failed")
		r.ui.Warning(fmt.Sprintf("  Could not fetch %s: %v", name, err))
		return nil, OutcomeFetchFailed, nil
	}
	s := &syncState{meta: meta, fetched: fetched}

	if s.newHash, err = store.HashDir(fetched.Dir); err != nil {
		return s, OutcomeFailed, err
	}
	if s.newHash == meta.BaseSHA256 {
		s.cleanup(ctx)
		return nil, OutcomeUpToDate, nil
	}

	if s.oldBase, err = r.store.BaseSkillText(name); err != nil {
		return s, OutcomeFailed, err
	}
	if s.newRemote, err = readRemoteSkill(fetched.Dir); err != nil {
		return s, OutcomeFailed, err
	}

	hasFlavor, err := r.hasFlavor(name)
	if err != nil {
		return s, OutcomeFailed, err
	}
	if hasFlavor {
		if s.live, err = r.store.LiveSkillText(name); err != nil {
			return s, OutcomeFailed, err
		}
		if s.flavor, err = r.store.ReadFlavor(name); err != nil {
			return s, OutcomeFailed, err
		}
	}

	s.branch = merge.Classify(hasFlavor, s.oldBase, s.live)
	s.classified = true
	return s, OutcomeFailed, nil
}

func (r *Reconciler) syncOne(ctx context.Context, meta *store.Meta) (*syncState, Outcome, error) {
	name := meta.Name
	r.ui.Info(fmt.Sprintf("Syncing %s...", name))

	s, outcome, err := r.load(ctx, meta)
	defer s.cleanup(ctx)
	if err != nil || s == nil {
		if outcome == OutcomeUpToDate {
			logger.G(ctx).Debug("skill is up to date")
			r.ui.Success(fmt.Sprintf("  %s: up to date", name))
		}
		return s, outcome, err
	}

	log := logger.G(ctx).WithField("branch", s.branch.String())
	log.WithField("summary", merge.ThreeWaySummary(s.oldBase, s.newRemote, s.flavor)).Info("upstream changed")

	switch s.branch {
	case merge.BranchNoFlavor:
		outcome, err = r.syncNoFlavor(ctx, s)
	case merge.BranchNoConflict:
		outcome, err = r.syncNoConflict(ctx, s)
	default:
		outcome, err = r.syncConflict(ctx, s)
	}
	if err != nil {
		return s, OutcomeFailed, err
	}
	log.WithField("outcome", outcome.String()).Info("skill synced")
	return s, outcome, nil
}

func (r *Reconciler) hasFlavor(name string) (bool, error) {
	if !r.store.HasFlavor(name) {
		return false, nil
	}
	text, err := r.store.ReadFlavor(name)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(text) != "", nil
}

// readRemoteSkill returns the fetched SKILL.md, or "" when the source has none.
func readRemoteSkill(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, skills.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to read fetched skill")
	}
	return string(data), nil
}

func (r *Reconciler) record(ctx context.Context, meta *store.Meta, s *syncState, outcome Outcome, syncErr error) {
	if r.journal == nil {
		return
	}

	e := journal.Event{
		RunID:     r.runID,
		Skill:     meta.Name,
		Outcome:   outcome.String(),
		OldSHA256: meta.BaseSHA256,
	}
	if s != nil && s.classified {
		e.Branch = s.branch.String()
		if outcome.Changed() {
			e.NewSHA256 = s.newHash
		}
	}
	if outcome == OutcomeAIMerged {
		e.Model = r.model
	}
	if syncErr != nil {
		e.Message = syncErr.Error()
	}

	if err := r.journal.Record(ctx, e); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record sync outcome")
	}
}
