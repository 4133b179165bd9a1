// Package analysis runs the category metric providers and the custom rule
// engine for one scoring run.
package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/panbanda/qscore/internal/logging"
	"github.com/panbanda/qscore/pkg/analyzer/rules"
	"github.com/panbanda/qscore/pkg/analyzer/score"
	"github.com/panbanda/qscore/pkg/models"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxFanOut = 4
	DefaultBatchSize = 500
)

// Provider produces the metric bundle of one category. Returning a nil bundle
// and a nil error means the category has no data for this run.
type Provider interface {
	Collect(ctx context.Context, files []string) (any, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, files []string) (any, error)

// Collect calls f.
func (f ProviderFunc) Collect(ctx context.Context, files []string) (any, error) {
	return f(ctx, files)
}

// RuleEvaluator evaluates custom rules over a list of files.
type RuleEvaluator interface {
	Evaluate(files []string) *rules.Evaluation
}

// ProviderError records a provider that failed or panicked. Its category is
// scored from the default for a missing bundle.
type ProviderError struct {
	Category models.Category
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Bundles is everything collected for one run. Any bundle may be nil.
type Bundles struct {
	CodeQuality  *models.CodeQualityMetrics
	TestCoverage *models.TestCoverageMetrics
	Architecture *models.ArchitectureMetrics
	Security     *models.SecurityMetrics
	Rules        *rules.Evaluation
	Errors       []*ProviderError
}

// ScoreInput converts the bundles into scoring input. Rule violations become
// findings and the rule score adjustment is carried over.
func (b *Bundles) ScoreInput(meta models.Metadata) score.Input {
	in := score.Input{
		CodeQuality:  b.CodeQuality,
		TestCoverage: b.TestCoverage,
		Architecture: b.Architecture,
		Security:     b.Security,
		Metadata:     meta,
	}
	if b.Rules != nil {
		in.Findings = rules.ToFindings(b.Rules.Violations)
		in.RuleAdjustment = b.Rules.ScoreAdjustment
		in.Metadata.CustomRules = b.Rules.Summary()
	}
	return in
}

// Orchestrator runs providers concurrently. A failing provider never aborts
// the others.
type Orchestrator struct {
	providers map[models.Category]Provider
	rules     RuleEvaluator
	maxFanOut int
	batchSize int
	logger    *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider registers the provider of a category.
func WithProvider(cat models.Category, p Provider) Option {
	return func(o *Orchestrator) {
		o.providers[cat] = p
	}
}

// WithRules evaluates custom rules alongside the providers.
func WithRules(r RuleEvaluator) Option {
	return func(o *Orchestrator) {
		o.rules = r
	}
}

// WithMaxFanOut bounds how many providers run at once.
func WithMaxFanOut(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxFanOut = n
		}
	}
}

// WithBatchSize sets how many files rule evaluation handles per batch.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets the logger for provider failures.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: make(map[models.Category]Provider),
		maxFanOut: DefaultMaxFanOut,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run collects every registered provider's bundle and, when configured, the
// custom rule evaluation. Provider errors and panics are recorded in
// Bundles.Errors, in category order, and leave that bundle nil.
func (o *Orchestrator) Run(ctx context.Context, files []string) *Bundles {
	var (
		mu      sync.Mutex
		bundles = &Bundles{}
		failed  = make(map[models.Category]*ProviderError)
	)

	p := pool.New().WithMaxGoroutines(o.maxFanOut)
	for _, cat := range models.Categories {
		prov, ok := o.providers[cat]
		if !ok || prov == nil {
			continue
		}
		p.Go(func() {
			v, err := collect(ctx, prov, files)
			if err == nil {
				mu.Lock()
				err = bundles.set(cat, v)
				mu.Unlock()
			}
			if err != nil {
				o.logger.Warn("%s metrics unavailable: %v", cat.Label(), err)
				mu.Lock()
				failed[cat] = &ProviderError{Category: cat, Err: err}
				mu.Unlock()
			}
		})
	}

	if o.rules != nil {
		p.Go(func() {
			eval := o.evaluateRules(files)
			mu.Lock()
			bundles.Rules = eval
			mu.Unlock()
		})
	}

	p.Wait()

	for _, cat := range models.Categories {
		if pe, ok := failed[cat]; ok {
			bundles.Errors = append(bundles.Errors, pe)
		}
	}
	return bundles
}

// evaluateRules evaluates the files in sequential batches and merges the result.
func (o *Orchestrator) evaluateRules(files []string) *rules.Evaluation {
	batches := Batches(files, o.batchSize)
	if len(batches) == 0 {
		return o.rules.Evaluate(nil)
	}
	evals := make([]*rules.Evaluation, 0, len(batches))
	for i, batch := range batches {
		o.logger.Debug("evaluating rules on batch %d/%d (%d files)", i+1, len(batches), len(batch))
		evals = append(evals, o.rules.Evaluate(batch))
	}
	if len(evals) == 1 {
		return evals[0]
	}
	return rules.Merge(evals...)
}

// collect calls the provider, converting a panic into an error.
func collect(ctx context.Context, prov Provider, files []string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		v   any
		err error
		pc  panics.Catcher
	)
	pc.Try(func() {
		v, err = prov.Collect(ctx, files)
	})
	if r := pc.Recovered(); r != nil {
		return nil, r.AsError()
	}
	return v, err
}

// set stores a provider result in the bundle slot of its category.
func (b *Bundles) set(cat models.Category, v any) error {
	if v == nil {
		return nil
	}
	var ok bool
	switch cat {
	case models.CategoryCodeQuality:
		b.CodeQuality, ok = v.(*models.CodeQualityMetrics)
	case models.CategoryTestCoverage:
		b.TestCoverage, ok = v.(*models.TestCoverageMetrics)
	case models.CategoryArchitecture:
		b.Architecture, ok = v.(*models.ArchitectureMetrics)
	case models.CategorySecurity:
		b.Security, ok = v.(*models.SecurityMetrics)
	}
	if !ok {
		return fmt.Errorf("unexpected bundle type %T", v)
	}
	return nil
}

// Batches splits files into consecutive slices of at most size files.
// A size of zero or less returns all files as a single batch.
func Batches(files []string, size int) [][]string {
	if len(files) == 0 {
		return nil
	}
	if size <= 0 || size >= len(files) {
		return [][]string{files}
	}
	out := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		out = append(out, files[start:end:end])
	}
	return out
}
