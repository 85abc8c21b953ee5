// Package ai provides AI-assisted report classification with strict
// degrade-gracefully semantics: every failure path collapses to the
// local rule classifier, invisibly to the caller.
package ai

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/classify"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/credential"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/remote"
)

// Suggestion is a classification suggestion for a draft report.
// Reasoning is only present when a live AI call succeeded.
type Suggestion struct {
	Title     string
	Category  model.Category
	Priority  int
	Reasoning string
}

// Predictor is the remote prediction call the delegate attempts before
// falling back. *remote.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, text string) (*remote.Prediction, error)
}

// Delegate asks a remote AI service to classify a description and
// falls back to the rule classifier whenever a live call is not
// permitted or does not succeed. Suggest never returns an error.
type Delegate struct {
	cfg       model.AIConfig
	predictor Predictor
	logger    *zap.Logger
	loading   atomic.Bool

	// hasCredential is swappable so tests need no system keyring.
	hasCredential func() bool
}

// New creates a Delegate. A nil logger is replaced with a no-op one.
func New(cfg model.AIConfig, predictor Predictor, logger *zap.Logger) *Delegate {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Delegate{
		cfg:       cfg,
		predictor: predictor,
		logger:    logger,
	}
	d.hasCredential = func() bool {
		if cfg.CredentialKey == "" {
			return false
		}
		value, err := credential.Get(cfg.CredentialKey)
		return err == nil && value != ""
	}
	return d
}

// Loading reports whether a live AI call is in flight. It brackets
// every call false→true→false and returns to false on all exit paths.
func (d *Delegate) Loading() bool {
	return d.loading.Load()
}

// Suggest classifies description. Blank input short-circuits to the
// rule classifier with no remote call; so does a configuration that
// permits no live call (AI disabled and no provider credential). Any
// transport failure, unexpected status, or malformed response is
// logged and absorbed: the caller always receives a usable suggestion.
func (d *Delegate) Suggest(ctx context.Context, description string) Suggestion {
	if strings.TrimSpace(description) == "" {
		return fromRules(description)
	}

	d.loading.Store(true)
	defer d.loading.Store(false)

	if !d.cfg.Enabled && !d.hasCredential() {
		return fromRules(description)
	}

	pred, err := d.predictor.Predict(ctx, description)
	if err != nil {
		d.logger.Warn("ai prediction failed, using rule classifier",
			zap.Error(err))
		return fromRules(description)
	}

	if !pred.Category.IsValid() ||
		pred.Priority < model.PriorityMin || pred.Priority > model.PriorityMax {
		d.logger.Warn("ai prediction malformed, using rule classifier",
			zap.String("category", string(pred.Category)),
			zap.Int("priority", pred.Priority))
		return fromRules(description)
	}

	return Suggestion{
		Title:     pred.Title,
		Category:  pred.Category,
		Priority:  pred.Priority,
		Reasoning: pred.Reasoning,
	}
}

// fromRules converts a rule-classifier result into a Suggestion.
// Reasoning stays empty, the only visible difference from a live call.
func fromRules(description string) Suggestion {
	res := classify.Classify(description)
	return Suggestion{
		Title:    res.Title,
		Category: res.Category,
		Priority: res.Priority,
	}
}
