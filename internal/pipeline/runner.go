// Package pipeline runs the catalogue stages: crawl, merge, validate, save and import.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mhdb/internal/config"
	"mhdb/internal/crawler"
	"mhdb/internal/dataset"
	"mhdb/internal/extract"
	"mhdb/internal/logger"
	"mhdb/internal/metrics"
	"mhdb/internal/models"
	"mhdb/internal/normalizer"
	"mhdb/internal/payload"
)

// ConfirmFunc asks the operator whether to import n institutions.
type ConfirmFunc func(ctx context.Context, n int) (bool, error)

// Options configures a Runner. Fetcher and Store default to the HTTP implementations.
type Options struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Recorder
	Fetcher crawler.Fetcher
	Store   payload.Client
	Confirm ConfirmFunc
}

// Runner wires the pipeline stages from configuration.
type Runner struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Recorder
	fetcher  crawler.Fetcher
	store    payload.Client
	confirm  ConfirmFunc
	runID    string
	started  time.Time
	policy   normalizer.Policy
	uploader *payload.Uploader
}

// New creates a runner. Each runner has its own run id.
func New(opts Options) (*Runner, error) {
	policy, err := normalizer.PolicyByName(opts.Config.Validation.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	runID := uuid.NewString()
	log := opts.Logger.With("run_id", runID)

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = crawler.NewScraper(opts.Config.Scraper)
	}

	store := opts.Store
	if store == nil {
		store = payload.NewStoreClient(payload.StoreOptions{
			Logger:        log,
			Metrics:       rec,
			BaseURL:       opts.Config.Store.BaseURL,
			APIKey:        opts.Config.Store.APIKey,
			HealthTimeout: opts.Config.Store.HealthTimeout(),
		})
	}

	return &Runner{
		cfg:      opts.Config,
		logger:   log,
		metrics:  rec,
		fetcher:  fetcher,
		store:    store,
		confirm:  opts.Confirm,
		runID:    runID,
		started:  time.Now(),
		policy:   policy,
		uploader: payload.NewUploaderWithClient(store, log),
	}, nil
}

// RunID identifies this run in logs and summaries.
func (r *Runner) RunID() string {
	return r.runID
}

// Summary is the final tally of a run.
type Summary struct {
	Import             *payload.ImportResult
	RunID              string
	Output             string
	SnapshotDigest     string
	FailedInstitutions []string
	Rejected           []normalizer.Rejection
	Attempts           crawler.AttemptStats
	Targets            int
	Skipped            int
	Scraped            int
	Seeded             int
	Accepted           int
	Resources          int
	Duration           time.Duration
}

// ScrapeResult holds the institutions built by a crawl.
type ScrapeResult struct {
	URLs         *crawler.URLManager
	Institutions []models.Institution
	Targets      int
	Skipped      int
}

// Scrape loads the target file and crawls every non-manual target.
func (r *Runner) Scrape(ctx context.Context) (*ScrapeResult, error) {
	set, err := dataset.LoadTargets(r.cfg.Scraper.TargetsPath)
	if err != nil {
		return nil, err
	}

	crawlable := set.Crawlable()
	r.logger.Info(fmt.Sprintf("🎯 Loaded %d targets (%d crawlable) from %s",
		len(set.Colleges), len(crawlable), r.cfg.Scraper.TargetsPath))

	ext := r.cfg.Extraction
	client := crawler.NewClient(crawler.ClientOptions{
		Fetcher:     r.fetcher,
		Builder:     extract.NewBuilder(ext),
		Pacer:       crawler.NewPacer(r.cfg.Scraper.PageDelay(), r.cfg.Scraper.InstitutionDelay()),
		Logger:      r.logger,
		Metrics:     r.metrics,
		Department:  ext.DefaultDepartment,
		Freshman:    ext.FreshmanFallback,
		Placeholder: ext.PlaceholderOnEmpty,
	})

	urls := crawler.NewURLManager(set.Colleges)

	insts, err := client.Crawl(ctx, set.Colleges, urls)
	if err != nil {
		return nil, err
	}

	urls.LogAttemptSummary(r.logger)

	return &ScrapeResult{
		URLs:         urls,
		Institutions: insts,
		Targets:      len(set.Colleges),
		Skipped:      len(set.Colleges) - len(crawlable),
	}, nil
}

// Process merges the seed file ahead of scraped institutions and validates the result.
func (r *Runner) Process(scraped []models.Institution) (*normalizer.Result, int, error) {
	seed, err := dataset.LoadSeed(r.cfg.Output.SeedPath)
	if err != nil {
		return nil, 0, err
	}

	merged, dropped := normalizer.Merge(seed, scraped)
	for _, name := range dropped {
		r.logger.Info("using curated record", "institution", name)
	}

	res := normalizer.NewProcessor(r.policy, r.cfg.Validation.Skip).Process(merged)

	for _, inst := range res.Accepted {
		outcome := metrics.OutcomeValid
		if r.cfg.Validation.Skip {
			outcome = metrics.OutcomeSkipped
		}

		r.metrics.InstitutionOutcome(outcome)
		r.logger.Debug("accepted", "institution", inst.Name, "resources", len(inst.Resources))
	}

	for _, rej := range res.Rejected {
		r.metrics.InstitutionOutcome(metrics.OutcomeRejected)
		r.logger.Warn(fmt.Sprintf("⚠️  rejected %s", rej.Institution.Name), "reasons", rej.Reasons)
	}

	return res, len(seed), nil
}

// Run executes every stage. The snapshot is written before the import so a
// failed import can be retried from the file.
func (r *Runner) Run(ctx context.Context, importToStore bool) (*Summary, error) {
	r.logger.Info("Phase 1: Extraction (Crawling)...")

	scrape, err := r.Scrape(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Phase 2: Processing (Merge & Validation)...")

	res, seeded, err := r.Process(scrape.Institutions)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:              r.runID,
		Output:             r.cfg.Output.Path,
		FailedInstitutions: scrape.URLs.FailedInstitutions(),
		Rejected:           res.Rejected,
		Attempts:           scrape.URLs.GetAttemptStats(),
		Targets:            scrape.Targets,
		Skipped:            scrape.Skipped,
		Scraped:            len(scrape.Institutions),
		Seeded:             seeded,
		Accepted:           len(res.Accepted),
	}

	for _, inst := range res.Accepted {
		sum.Resources += len(inst.Resources)
	}

	sum.SnapshotDigest, err = dataset.SaveInstitutions(r.cfg.Output.Path, res.Accepted)
	if err != nil {
		return sum, err
	}

	r.logger.Info(fmt.Sprintf("💾 Saved %d institutions to %s", len(res.Accepted), r.cfg.Output.Path),
		"digest", sum.SnapshotDigest)

	if importToStore {
		r.logger.Info("Phase 3: Synchronization (Importing)...")

		sum.Import, err = r.Import(ctx, res.Accepted)
	}

	sum.Duration = time.Since(r.started)
	r.WriteMetrics()

	return sum, err
}

// Import submits insts to the store after confirmation.
func (r *Runner) Import(ctx context.Context, insts []models.Institution) (*payload.ImportResult, error) {
	if len(insts) == 0 {
		return nil, payload.ErrNothingToImport
	}

	if r.confirm != nil {
		ok, err := r.confirm(ctx, len(insts))
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, ErrDeclined
		}
	}

	return r.uploader.Import(ctx, insts)
}

// WriteMetrics flushes the run's metrics when a metrics path is configured.
func (r *Runner) WriteMetrics() {
	path := r.cfg.Output.MetricsPath
	if path == "" {
		return
	}

	if err := r.metrics.WriteTextfile(path); err != nil {
		r.logger.Warn("⚠️  could not write metrics", "error", err)
	}
}
