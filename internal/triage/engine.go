package triage

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/verdict/internal/cache"
	"github.com/dshills/verdict/internal/codectx"
	"github.com/dshills/verdict/internal/finding"
	"github.com/dshills/verdict/internal/metrics"
	"github.com/dshills/verdict/internal/providers"
	"github.com/dshills/verdict/internal/recovery"
	"github.com/dshills/verdict/internal/redact"
	"github.com/dshills/verdict/internal/selector"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCache shares a verdict cache across engines. By default each engine
// owns a cache honouring Config.CacheEnabled.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the engine logger. A nil logger keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSources sets where code context is read from. The default reads files
// from the working directory.
func WithSources(s codectx.Source) Option {
	return func(e *Engine) {
		if s != nil {
			e.sources = s
		}
	}
}

// WithGuidance appends project guidance to every prompt.
func WithGuidance(g *Guidance) Option {
	return func(e *Engine) { e.guidance = g }
}

// Engine applies model verdicts to findings.
type Engine struct {
	analyzer providers.Analyzer
	cfg      Config
	cache    *cache.Cache
	log      *zap.Logger
	metrics  *metrics.Recorder
	sources  codectx.Source
	guidance *Guidance
	initErr  error
	// flight collapses concurrent misses on the same cache key.
	flight singleflight.Group
}

// New creates an engine around analyzer. A nil analyzer disables analysis.
func New(analyzer providers.Analyzer, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		analyzer: analyzer,
		cfg:      cfg.normalized(),
		log:      zap.NewNop(),
		sources:  codectx.NewDisk(""),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New(e.cfg.CacheEnabled)
	}
	return e
}

// NewFromConfig creates the provider from pcfg. A provider that cannot be
// created disables analysis instead of failing; the cause is available from
// InitError.
func NewFromConfig(pcfg providers.Config, cfg Config, opts ...Option) *Engine {
	if !cfg.EnableAIFilter {
		return New(nil, cfg, opts...)
	}
	analyzer, err := providers.New(pcfg)
	if err != nil {
		e := New(nil, cfg, opts...)
		e.initErr = err
		e.log.Warn("AI provider unavailable, continuing without AI filtering",
			zap.String("provider", pcfg.Provider),
			zap.Error(err))
		return e
	}
	e := New(analyzer, cfg, opts...)
	e.log.Info("AI engine initialized",
		zap.String("provider", analyzer.Name()),
		zap.String("model", pcfg.Model))
	return e
}

// Enabled reports whether Run will call the provider.
func (e *Engine) Enabled() bool {
	return e.cfg.EnableAIFilter && e.analyzer != nil
}

// InitError returns the provider construction error, if any.
func (e *Engine) InitError() error { return e.initErr }

// Cache returns the engine's verdict cache.
func (e *Engine) Cache() *cache.Cache { return e.cache }

type job struct {
	index int
	f     *finding.Finding
}

// Run analyzes findings and returns the kept list. It never fails: provider
// and parse errors keep the affected finding unmodified. Canceling ctx stops
// dispatch, aborts in-flight calls and returns what was completed.
func (e *Engine) Run(ctx context.Context, findings []*finding.Finding) *Result {
	start := time.Now()
	res := &Result{
		All:      findings,
		Outcomes: make([]Outcome, len(findings)),
	}
	for i, f := range findings {
		res.Outcomes[i] = Outcome{Finding: f, Status: StatusNotSelected}
	}
	defer func() {
		res.Findings = kept(res.Outcomes)
		st := e.cache.Stats()
		res.CacheStats = CacheStats{Entries: st.Entries, Hits: st.Hits, Misses: st.Misses}
		res.Duration = time.Since(start)
	}()

	if !e.Enabled() {
		res.AIDisabled = true
		if e.cfg.EnableAIFilter {
			e.log.Warn("AI provider not initialized, skipping AI filtering")
		}
		return res
	}
	res.Provider = e.analyzer.Name()
	if len(findings) == 0 {
		e.log.Info("no findings to analyze")
		return res
	}

	selected, rep := selector.SelectWithReport(findings, selector.Options{
		Rules:       e.cfg.AnalyzeRules,
		MaxFindings: e.cfg.MaxFindings,
	})
	res.Selection = rep
	e.log.Info("selected findings for AI analysis",
		zap.Int("selected", rep.Selected),
		zap.Int("total", len(findings)),
		zap.Int("skipped_high_confidence", rep.SkippedHighConfidence),
		zap.Int("skipped_not_allowed", rep.SkippedNotAllowed),
		zap.Bool("truncated", rep.Truncated))
	if len(selected) == 0 {
		return res
	}

	jobs := e.plan(findings, selected)
	for _, j := range jobs {
		res.Outcomes[j.index].Status = ""
	}

	if e.cfg.Concurrency <= 1 {
		for _, j := range jobs {
			if ctx.Err() != nil {
				break
			}
			res.Outcomes[j.index] = e.analyze(ctx, j.f)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.cfg.Concurrency)
		for _, j := range jobs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				res.Outcomes[j.index] = e.analyze(ctx, j.f)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, j := range jobs {
		if res.Outcomes[j.index].Status == "" {
			res.Outcomes[j.index] = Outcome{
				Finding: j.f,
				Status:  StatusSkippedCanceled,
				Err:     ctx.Err(),
				ErrKind: providers.KindCanceledError,
			}
		}
	}
	if ctx.Err() != nil {
		res.Canceled = true
		e.log.Warn("AI analysis canceled", zap.Error(ctx.Err()))
	}
	return res
}

type batch struct {
	file     string
	n, total int
	findings []*finding.Finding
}

// plan splits selected findings into per-file batches and orders the batches
// by their most severe finding, so dispatch follows selection priority.
// Batches of equal severity keep first-seen file order.
func (e *Engine) plan(all, selected []*finding.Finding) []job {
	index := make(map[*finding.Finding]int, len(all))
	for i, f := range all {
		if _, dup := index[f]; !dup {
			index[f] = i
		}
	}

	var order []string
	byFile := make(map[string][]*finding.Finding)
	for _, f := range selected {
		p := f.Location.FilePath
		if _, seen := byFile[p]; !seen {
			order = append(order, p)
		}
		byFile[p] = append(byFile[p], f)
	}

	var batches []batch
	for _, p := range order {
		group := byFile[p]
		total := (len(group) + e.cfg.BatchSize - 1) / e.cfg.BatchSize
		for b := 0; b < total; b++ {
			batches = append(batches, batch{
				file:     p,
				n:        b + 1,
				total:    total,
				findings: group[b*e.cfg.BatchSize : min(len(group), (b+1)*e.cfg.BatchSize)],
			})
		}
	}
	// Selection is severity ordered, so a batch's first finding is its most severe.
	sort.SliceStable(batches, func(i, j int) bool {
		return finding.Rank(batches[i].findings[0].Severity) < finding.Rank(batches[j].findings[0].Severity)
	})

	jobs := make([]job, 0, len(selected))
	for _, b := range batches {
		e.log.Info("processing batch",
			zap.String("file", b.file),
			zap.Int("batch", b.n),
			zap.Int("batches", b.total),
			zap.Int("size", len(b.findings)))
		for _, f := range b.findings {
			jobs = append(jobs, job{index: index[f], f: f})
		}
	}
	return jobs
}

// analyze runs the cache, provider, recovery and apply steps for one finding.
func (e *Engine) analyze(ctx context.Context, f *finding.Finding) Outcome {
	start := time.Now()
	log := e.log.With(
		zap.String("rule", f.RuleID),
		zap.String("file", f.Location.FilePath),
		zap.Int("line", f.Location.StartLine))

	key := cache.KeyFor(f)
	if v, ok := e.cache.Get(key); ok {
		e.metrics.CacheLookup(true)
		filtered := e.apply(f, v)
		log.Debug("using cached verdict", zap.Bool("filtered", filtered))
		return Outcome{Finding: f, Status: StatusApplied, Cached: true, Filtered: filtered, Duration: time.Since(start)}
	}
	if e.cache.Enabled() {
		e.metrics.CacheLookup(false)
	}

	r, err := e.fetch(ctx, key, f)
	if err != nil {
		if errors.Is(err, recovery.ErrUnparseable) {
			e.metrics.AnalysisError(string(providers.KindMalformedError))
			log.Warn("unparseable AI response, keeping finding", zap.Error(err))
			return Outcome{Finding: f, Status: StatusSkippedParse, Err: err, ErrKind: providers.KindMalformedError, Duration: time.Since(start)}
		}
		kind := providers.Classify(err)
		status := StatusSkippedError
		if ctx.Err() != nil || kind == providers.KindCanceledError {
			kind = providers.KindCanceledError
			status = StatusSkippedCanceled
		}
		e.metrics.AnalysisError(string(kind))
		log.Warn("AI analysis failed, keeping finding", zap.String("kind", string(kind)), zap.Error(err))
		return Outcome{Finding: f, Status: status, Err: err, ErrKind: kind, Duration: time.Since(start)}
	}

	v := r.verdict
	filtered := e.apply(f, v)
	if r.shared {
		log.Debug("using verdict from concurrent analysis", zap.Bool("filtered", filtered))
		return Outcome{Finding: f, Status: StatusApplied, Cached: true, Filtered: filtered, Duration: time.Since(start)}
	}
	e.metrics.Analyzed(e.analyzer.Name())
	log.Info("AI verdict",
		zap.Bool("false_positive", v.IsFalsePositive),
		zap.Float64("confidence", v.Confidence),
		zap.Bool("filtered", filtered),
		zap.Bool("remediation_enhanced", v.EnhancedRemediation != ""),
		zap.Int("tokens", r.tokens))
	if v.SuggestedSeverity != nil {
		log.Debug("suggested severity", zap.String("suggested", string(*v.SuggestedSeverity)), zap.String("current", string(f.Severity)))
	}
	return Outcome{Finding: f, Status: StatusApplied, Filtered: filtered, Duration: time.Since(start)}
}

type fetched struct {
	verdict *finding.Verdict
	tokens  int
	// shared is set when another finding's call supplied the verdict.
	shared bool
}

// fetch obtains a verdict for a cache miss. With the cache enabled, findings
// sharing key while a call is in flight wait for that call instead of making
// their own. Only successful verdicts are cached.
func (e *Engine) fetch(ctx context.Context, key string, f *finding.Finding) (fetched, error) {
	if !e.cache.Enabled() {
		return e.request(ctx, f)
	}
	called := false
	v, err, _ := e.flight.Do(key, func() (any, error) {
		if v, ok := e.cache.Peek(key); ok {
			return fetched{verdict: v}, nil
		}
		called = true
		r, err := e.request(ctx, f)
		if err != nil {
			return nil, err
		}
		e.cache.Put(key, r.verdict)
		return r, nil
	})
	if err != nil {
		return fetched{}, err
	}
	r := v.(fetched)
	r.shared = !called
	return r, nil
}

// request makes one provider call and recovers the verdict from its reply.
func (e *Engine) request(ctx context.Context, f *finding.Finding) (fetched, error) {
	req := providers.Request{
		Prompt:       BuildPrompt(f, e.codeContext(f), e.guidance),
		SystemPrompt: SystemPrompt(),
	}
	e.log.Debug("sending finding to provider", zap.String("rule", f.RuleID))
	callStart := time.Now()
	resp, err := e.analyzer.Analyze(ctx, req)
	e.metrics.ObserveRequest(time.Since(callStart))
	if err != nil {
		return fetched{}, err
	}
	parsed := resp.Parsed
	if parsed == nil {
		if parsed, err = recovery.Parse(resp.Content); err != nil {
			return fetched{}, err
		}
	}
	return fetched{verdict: finding.VerdictFromMap(parsed), tokens: resp.TokensUsed}, nil
}

// apply attaches v to f and reports whether f is now filtered.
func (e *Engine) apply(f *finding.Finding, v *finding.Verdict) bool {
	f.Verdict = v
	if v.EnhancedRemediation != "" {
		f.Remediation = v.EnhancedRemediation
		f.Source = finding.SourceAIEnhanced
	}
	if v.IsFalsePositive && v.Confidence >= e.cfg.ConfidenceThreshold {
		f.Filtered = true
		e.metrics.Filtered()
		return true
	}
	return false
}

func (e *Engine) codeContext(f *finding.Finding) string {
	path := f.Location.FilePath
	content, _ := e.sources.Lookup(path)
	snippet := f.Location.Snippet
	if e.cfg.RedactSecrets {
		var withheld bool
		if content, withheld = redact.Context(path, content, e.cfg.RedactPaths); withheld {
			return content
		}
		snippet = redact.Secrets(snippet)
	}
	return codectx.Snippet(path, content, snippet, f.Location.StartLine, e.cfg.ContextLines)
}

func kept(outcomes []Outcome) []*finding.Finding {
	out := make([]*finding.Finding, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Finding == nil || o.Filtered {
			continue
		}
		out = append(out, o.Finding)
	}
	return out
}
