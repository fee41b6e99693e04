package crawler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"mhdb/internal/extract"
	"mhdb/internal/logger"
	"mhdb/internal/metrics"
	"mhdb/internal/models"
)

// Placeholder resource used when an institution yields no candidates.
const (
	PlaceholderName        = "Counseling and Psychological Services"
	PlaceholderDescription = "Mental health counseling and support services for students."
)

// Client crawls institutions one at a time, fetching each page in listed order.
type Client struct {
	fetcher     Fetcher
	builder     *extract.Builder
	pacer       *Pacer
	logger      *logger.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	department  string
	freshman    string
	placeholder bool
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Fetcher     Fetcher
	Builder     *extract.Builder
	Pacer       *Pacer
	Logger      *logger.Logger
	Metrics     *metrics.Recorder
	Department  string
	Freshman    string
	Placeholder bool
}

// NewClient creates a crawler client.
func NewClient(opts ClientOptions) *Client {
	return &Client{
		fetcher:     opts.Fetcher,
		builder:     opts.Builder,
		pacer:       opts.Pacer,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         time.Now,
		department:  opts.Department,
		freshman:    opts.Freshman,
		placeholder: opts.Placeholder,
	}
}

// Crawl processes every crawlable target sequentially. It only fails on cancellation;
// unreachable pages are logged and skipped.
func (c *Client) Crawl(ctx context.Context, targets []models.Target, urls *URLManager) ([]models.Institution, error) {
	var out []models.Institution

	for i := range targets {
		t := &targets[i]
		if t.IsManual() {
			c.logger.Debug("skipping manual target", "institution", t.Name)
			continue
		}

		if err := c.pacer.WaitInstitution(ctx); err != nil {
			return out, fmt.Errorf("crawl interrupted: %w", err)
		}

		c.logger.Info(fmt.Sprintf("🏫 [%d/%d] %s", i+1, len(targets), t.Name))

		inst, err := c.CrawlInstitution(ctx, t, urls)
		c.pacer.InstitutionDone()

		if err != nil {
			return out, err
		}

		out = append(out, *inst)
	}

	return out, nil
}

// CrawlInstitution fetches each of the target's pages and builds its deduplicated resources.
func (c *Client) CrawlInstitution(ctx context.Context, t *models.Target, urls *URLManager) (*models.Institution, error) {
	var candidates []extract.Candidate

	for _, ref := range urls.Pages(t) {
		if err := c.pacer.WaitPage(ctx); err != nil {
			return nil, fmt.Errorf("crawl interrupted: %w", err)
		}

		found, res, err := c.crawlPage(ctx, ref)
		c.pacer.PageDone()

		if ctx.Err() != nil {
			return nil, fmt.Errorf("crawl interrupted: %w", ctx.Err())
		}

		urls.RecordAttempt(ref, res, len(found), err)

		if err != nil {
			c.logger.Warn("⚠️  skipping page", "url", ref.URL, "error", err)
			continue
		}

		c.logger.Info(fmt.Sprintf("   ✓ %s: %d candidates", ref.URL, len(found)))
		candidates = append(candidates, found...)
	}

	resources := extract.Dedup(extract.Resources(candidates))
	if len(resources) == 0 && c.placeholder && len(t.MentalHealthURLs) > 0 {
		c.logger.Warn("no resources found, using placeholder", "institution", t.Name)
		resources = []models.Resource{c.placeholderResource(t)}
	}

	c.metrics.ResourcesKept(len(resources))

	return &models.Institution{
		ScrapedAt: c.now().UTC(),
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
		Name:      t.Name,
		State:     t.State,
		Location:  t.Location,
		Website:   t.Website,
		Resources: resources,
	}, nil
}

func (c *Client) crawlPage(ctx context.Context, ref PageRef) ([]extract.Candidate, *FetchResult, error) {
	res, err := c.fetcher.Fetch(ctx, ref.URL)

	var d time.Duration
	if res != nil {
		d = res.Duration
	}

	c.metrics.PageFetched(err == nil, d)

	if err != nil {
		return nil, res, fmt.Errorf("failed to fetch %s: %w", ref.URL, err)
	}

	page, err := extract.NewPage(bytes.NewReader(res.Body), ref.URL)
	if err != nil {
		return nil, res, err
	}

	found := c.builder.Build(page)
	for _, cand := range found {
		c.metrics.CandidateBuilt(cand.Strategy)
	}

	return found, res, nil
}

func (c *Client) placeholderResource(t *models.Target) models.Resource {
	return models.Resource{
		ServiceName:    PlaceholderName,
		Description:    PlaceholderDescription,
		ContactWebsite: t.MentalHealthURLs[0],
		Department:     c.department,
		FreshmanNotes:  c.freshman,
	}
}
