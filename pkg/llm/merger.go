package llm

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillchef/pkg/llm/prompts"
	"github.com/jingkaihe/skillchef/pkg/llm/types"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/merge"
	"github.com/jingkaihe/skillchef/pkg/telemetry"
)

// MergeRequest carries the documents of a three-way skill merge.
type MergeRequest struct {
	OldBase   string
	NewRemote string
	Flavor    string
	// CurrentLive is the live document when it has edits outside the flavor.
	CurrentLive string
	// Instruction is an extra user instruction for this attempt.
	Instruction string
}

// Merger produces a merged skill document.
type Merger interface {
	Merge(ctx context.Context, req MergeRequest) (string, error)
}

// CompletionMerger renders the merge prompt and sends it to a Completer.
type CompletionMerger struct {
	completer types.Completer
	retry     types.RetryConfig
	model     string
}

// NewCompletionMerger wraps completer. Retries follow retryConfig; a zero
// Attempts disables retrying.
func NewCompletionMerger(completer types.Completer, model string, retryConfig types.RetryConfig) *CompletionMerger {
	return &CompletionMerger{completer: completer, model: model, retry: retryConfig}
}

// Model returns the "provider/model" in use.
func (m *CompletionMerger) Model() string {
	return m.model
}

// Merge asks the model for a merged document and returns it with surrounding
// whitespace and code fences removed.
func (m *CompletionMerger) Merge(ctx context.Context, req MergeRequest) (string, error) {
	prompt, err := prompts.Merge(prompts.MergeInput{
		OldBase:     req.OldBase,
		NewRemote:   req.NewRemote,
		Flavor:      req.Flavor,
		CurrentLive: req.CurrentLive,
		Instruction: req.Instruction,
		Summary:     merge.ThreeWaySummary(req.OldBase, req.NewRemote, req.Flavor),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render merge prompt")
	}

	var out string
	err = telemetry.WithSpan(ctx, "llm.merge", func(ctx context.Context) error {
		return m.executeWithRetry(ctx, func() error {
			text, err := m.completer.Complete(ctx, prompt)
			if err != nil {
				return err
			}
			out = text
			return nil
		})
	}, attribute.String("llm.model", m.model), attribute.Bool("llm.instruction", req.Instruction != ""))
	if err != nil {
		return "", err
	}

	merged := StripCodeFence(out)
	if merged == "" {
		return "", errors.New("model returned an empty document")
	}
	return merged, nil
}

func isRetryableError(err error) bool {
	var retryable *types.RetryableError
	return errors.As(err, &retryable)
}

func (m *CompletionMerger) executeWithRetry(ctx context.Context, operation func() error) error {
	retryConfig := m.retry
	if retryConfig.Attempts <= 1 {
		return operation()
	}

	var delayType retry.DelayTypeFunc
	switch retryConfig.BackoffType {
	case "fixed":
		delayType = retry.FixedDelay
	default:
		delayType = retry.BackOffDelay
	}

	var originalErrors []error
	err := retry.Do(
		func() error {
			err := operation()
			if err != nil {
				originalErrors = append(originalErrors, err)
			}
			return err
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(uint(retryConfig.Attempts)),
		retry.Delay(time.Duration(retryConfig.InitialDelay)*time.Millisecond),
		retry.MaxDelay(time.Duration(retryConfig.MaxDelay)*time.Millisecond),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("attempt", n+1).
				WithField("max_attempts", retryConfig.Attempts).
				Warn("retrying merge completion")
		}),
	)
	if err != nil && len(originalErrors) > 1 {
		return errors.Wrapf(err, "all %d attempts failed", len(originalErrors))
	}
	return err
}

var fenceRE = regexp.MustCompile("(?s)\\A```[a-zA-Z]*[ \\t]*\\n(.*?)\\n?```\\z")

// StripCodeFence trims whitespace and removes a code fence wrapping the
// whole response.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
