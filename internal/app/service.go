// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/phq9/internal/adapters/phrasebank"
	"github.com/okian/phq9/internal/adapters/sheet"
	"github.com/okian/phq9/internal/domain/commentary"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/resolver"
	"github.com/okian/phq9/internal/domain/scoring"
	"github.com/okian/phq9/internal/domain/types"
	"github.com/okian/phq9/pkg/logger"
	"github.com/okian/phq9/pkg/metrics"
)

// Service scores one respondent per call against a freshly fetched sheet.
type Service struct {
	mu sync.RWMutex

	// Core components
	source   sheet.Source
	resolver *resolver.Resolver
	composer *commentary.Composer
	bank     *commentary.Bank

	// Configuration
	sheetURL     string
	fetchTimeout time.Duration
	maxBodyBytes int64
	userAgent    string
	layout       model.Layout
	duplicates   model.DuplicatePolicy
	phrasesPath  string
	noRepeat     bool
	personalize  bool
	picker       commentary.Picker

	// State
	started bool

	analyzed         atomic.Int64
	notFound         atomic.Int64
	ambiguous        atomic.Int64
	upstreamFailures atomic.Int64
	parseFailures    atomic.Int64
	unrecognized     atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource injects a ready sheet source. It takes precedence over WithSheetURL.
func WithSource(src sheet.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithSheetURL sets the export location; an http(s) URL or a local path.
func WithSheetURL(u string) Option {
	return func(s *Service) {
		s.sheetURL = u
	}
}

// WithFetchTimeout bounds each sheet fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithMaxBodyBytes caps the sheet size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent sent to an HTTP sheet.
func WithUserAgent(ua string) Option {
	return func(s *Service) {
		s.userAgent = ua
	}
}

// WithLayout sets the identity and reserved column spans.
func WithLayout(l model.Layout) Option {
	return func(s *Service) {
		s.layout = l
	}
}

// WithDuplicatePolicy sets how repeated names are handled.
func WithDuplicatePolicy(p model.DuplicatePolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.duplicates = p
		}
	}
}

// WithPhrasesPath sets the phrase bank file read at Start.
func WithPhrasesPath(path string) Option {
	return func(s *Service) {
		s.phrasesPath = path
	}
}

// WithPhraseBank injects a loaded bank. It takes precedence over WithPhrasesPath.
func WithPhraseBank(b *commentary.Bank) Option {
	return func(s *Service) {
		s.bank = b
	}
}

// WithNoRepeat toggles the one-use-per-request phrase rule.
func WithNoRepeat(enabled bool) Option {
	return func(s *Service) {
		s.noRepeat = enabled
	}
}

// WithPersonalization puts the respondent name into the urgent statement.
func WithPersonalization(enabled bool) Option {
	return func(s *Service) {
		s.personalize = enabled
	}
}

// WithPicker replaces the random phrase picker.
func WithPicker(p commentary.Picker) Option {
	return func(s *Service) {
		s.picker = p
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetchTimeout: sheet.DefaultTimeout,
		maxBodyBytes: sheet.DefaultMaxBytes,
		layout:       model.DefaultLayout(),
		duplicates:   model.DuplicateFirst,
		noRepeat:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the configuration, builds the sheet source and loads the
// phrase bank. A missing phrase file is tolerated; a malformed one is not.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting phq9 service...")

	res, err := resolver.New(
		resolver.WithLayout(s.layout),
		resolver.WithDuplicatePolicy(s.duplicates),
	)
	if err != nil {
		return fmt.Errorf("service.Start: %w", err)
	}
	s.resolver = res

	if s.source == nil {
		src, err := sheet.New(s.sheetURL,
			sheet.WithTimeout(s.fetchTimeout),
			sheet.WithMaxBytes(s.maxBodyBytes),
			sheet.WithUserAgent(s.userAgent),
		)
		if err != nil {
			return fmt.Errorf("service.Start: %w", err)
		}
		s.source = src
	}

	if s.bank == nil {
		bank, err := s.loadBank(ctx)
		if err != nil {
			return fmt.Errorf("service.Start: %w", err)
		}
		s.bank = bank
	}
	metrics.UpdatePhraseBank(len(s.bank.Conditions()), s.bank.Len())

	copts := []commentary.Option{
		commentary.WithBank(s.bank),
		commentary.WithNoRepeat(s.noRepeat),
		commentary.WithPersonalization(s.personalize),
		commentary.WithFallbackObserver(metrics.RecordPhraseFallback),
	}
	if s.picker != nil {
		copts = append(copts, commentary.WithPicker(s.picker))
	}
	s.composer = commentary.NewComposer(copts...)

	s.started = true
	s.logger.Info(ctx, "phq9 service started",
		logger.String("sheet", s.source.Describe()),
		logger.String("layout", s.layout.String()),
		logger.String("duplicatePolicy", string(s.duplicates)),
		logger.Int("phrases", s.bank.Len()),
	)
	return nil
}

func (s *Service) loadBank(ctx context.Context) (*commentary.Bank, error) {
	if s.phrasesPath == "" {
		s.logger.Info(ctx, "no phrase bank configured; additional impressions disabled")
		return commentary.NewBank(nil), nil
	}
	bank, err := phrasebank.Load(ctx, s.phrasesPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(ctx, "phrase bank not found; additional impressions disabled",
			logger.String("path", s.phrasesPath))
		return commentary.NewBank(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return bank, nil
}

// Stop marks the service stopped. In-flight calls finish normally.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "phq9 service stopped")
}

// Analyze fetches the sheet, finds the respondent and builds the assessment.
func (s *Service) Analyze(ctx context.Context, id model.Identity) (types.Assessment, error) {
	s.mu.RLock()
	started, src, res, comp := s.started, s.source, s.resolver, s.composer
	s.mu.RUnlock()

	if !started {
		return types.Assessment{}, ErrNotStarted
	}
	if id.Empty() {
		return types.Assessment{}, fmt.Errorf("%w: a client name or name parts are required", ErrInvalidIdentity)
	}

	start := time.Now()
	table, err := src.Fetch(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		kind := s.classifyFetchError(err)
		metrics.RecordSheetFetchError(kind)
		metrics.RecordErrorLatency("sheet", kind, elapsed)
		s.logger.Error(ctx, "sheet fetch failed",
			logger.String("sheet", src.Describe()),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return types.Assessment{}, fmt.Errorf("fetch sheet: %w", err)
	}
	metrics.RecordSheetFetch(elapsed, table.Len())

	match, err := res.Resolve(ctx, table, id)
	if err != nil {
		s.recordResolveError(ctx, err, table.Len())
		return types.Assessment{}, err
	}

	if match.Unrecognized > 0 {
		s.unrecognized.Add(int64(match.Unrecognized))
		metrics.RecordUnrecognizedAnswers(match.Unrecognized)
		s.logger.Warn(ctx, "row has unrecognized answers scored as zero",
			logger.Int("row", match.RowNumber),
			logger.Int("count", match.Unrecognized),
		)
	}

	name := id.DisplayName()
	c := comp.Compose(ctx, commentary.Request{Name: name, Severity: match.Severity})

	// A single client_name is echoed as the caller sent it.
	echoed := name
	if strings.TrimSpace(id.ClientName) != "" {
		echoed = id.ClientName
	}

	out := types.Assessment{
		ClientName:            echoed,
		TotalScore:            match.Score,
		Interpretation:        match.Severity.Interpretation(),
		Severity:              string(match.Severity.Level),
		PrimaryImpression:     c.Primary,
		AdditionalImpressions: c.Impressions,
		SuggestedTools:        c.SuggestedTools,
	}
	out.Normalize()

	s.analyzed.Add(1)
	metrics.RecordAssessment(out.Severity, out.TotalScore)
	s.logger.Info(ctx, "assessment completed",
		logger.Int("row", match.RowNumber),
		logger.Int("score", match.Score),
		logger.String("severity", out.Severity),
		logger.Int("impressions", len(out.AdditionalImpressions)),
	)
	return out, nil
}

func (s *Service) classifyFetchError(err error) string {
	switch {
	case errors.Is(err, sheet.ErrParse):
		s.parseFailures.Add(1)
		return "parse"
	case sheet.IsTimeout(err):
		s.upstreamFailures.Add(1)
		return "timeout"
	default:
		s.upstreamFailures.Add(1)
		return "fetch"
	}
}

func (s *Service) recordResolveError(ctx context.Context, err error, rows int) {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		s.notFound.Add(1)
		metrics.RecordAssessmentNotFound()
		s.logger.Info(ctx, "respondent not found", logger.Int("rows", rows))
	case errors.Is(err, resolver.ErrAmbiguous):
		s.ambiguous.Add(1)
		metrics.RecordAmbiguousMatch()
		s.logger.Warn(ctx, "respondent matches several rows", logger.Error(err))
	case errors.Is(err, resolver.ErrMalformedRow):
		s.parseFailures.Add(1)
		metrics.RecordSheetFetchError("parse")
		s.logger.Error(ctx, "malformed sheet row", logger.Error(err))
	default:
		s.logger.Error(ctx, "resolve failed", logger.Error(err))
	}
}

func severityBands() []string {
	bands := scoring.Bands()
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = b.Interpretation()
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"layout":              s.layout.String(),
		"duplicatePolicy":     string(s.duplicates),
		"noRepeatPhrases":     s.noRepeat,
		"analyzed":            s.analyzed.Load(),
		"notFound":            s.notFound.Load(),
		"ambiguous":           s.ambiguous.Load(),
		"upstreamFailures":    s.upstreamFailures.Load(),
		"parseFailures":       s.parseFailures.Load(),
		"unrecognizedAnswers": s.unrecognized.Load(),
		"severityBands":       severityBands(),
	}
	if s.started {
		stats["sheet"] = s.source.Describe()
		stats["phraseBankConditions"] = len(s.bank.Conditions())
		stats["phraseBankPhrases"] = s.bank.Len()
	}
	return stats
}
