package crawler

import (
	"fmt"
	"time"

	"mhdb/internal/logger"
	"mhdb/internal/models"
)

// URLManager walks every target's page URLs in listed order and records
// the outcome of each fetch.
type URLManager struct {
	attemptLog map[string][]AttemptResult
	order      []string
	targets    []models.Target
}

// AttemptResult records the result of a URL fetch.
type AttemptResult struct {
	Timestamp   time.Time
	Institution string
	URL         string
	Error       string
	Attempts    int
	Candidates  int
	Duration    time.Duration
	StatusCode  int
	Success     bool
}

// PageRef is one URL to fetch for one target.
type PageRef struct {
	Target *models.Target
	URL    string
	Index  int
}

// NewURLManager creates a URL manager over the given targets.
func NewURLManager(targets []models.Target) *URLManager {
	return &URLManager{
		attemptLog: make(map[string][]AttemptResult),
		targets:    targets,
	}
}

// Pages returns the page references of target in listed order.
func (um *URLManager) Pages(target *models.Target) []PageRef {
	refs := make([]PageRef, 0, len(target.MentalHealthURLs))
	for i, u := range target.MentalHealthURLs {
		refs = append(refs, PageRef{Target: target, URL: u, Index: i})
	}

	return refs
}

// RecordAttempt records the result of a fetch.
func (um *URLManager) RecordAttempt(ref PageRef, res *FetchResult, candidates int, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	result := AttemptResult{
		Timestamp:   time.Now(),
		Institution: ref.Target.Name,
		URL:         ref.URL,
		Error:       errMsg,
		Candidates:  candidates,
		Success:     err == nil,
	}

	if res != nil {
		result.Attempts = res.Attempts
		result.Duration = res.Duration
		result.StatusCode = res.StatusCode
	}

	if _, ok := um.attemptLog[ref.URL]; !ok {
		um.order = append(um.order, ref.URL)
	}

	um.attemptLog[ref.URL] = append(um.attemptLog[ref.URL], result)
}

// GetAttemptLog returns the attempt log for a URL.
func (um *URLManager) GetAttemptLog(url string) []AttemptResult {
	return um.attemptLog[url]
}

// FailedInstitutions returns targets none of whose URLs were fetched successfully.
func (um *URLManager) FailedInstitutions() []string {
	var failed []string

	for i := range um.targets {
		t := &um.targets[i]
		if t.IsManual() {
			continue
		}

		ok := false

		for _, u := range t.MentalHealthURLs {
			for _, r := range um.attemptLog[u] {
				if r.Success {
					ok = true
				}
			}
		}

		if !ok {
			failed = append(failed, t.Name)
		}
	}

	return failed
}

// GetAttemptStats returns statistics about fetch attempts.
func (um *URLManager) GetAttemptStats() AttemptStats {
	stats := AttemptStats{}

	for _, t := range um.targets {
		if t.IsManual() {
			stats.SkippedTargets++
			continue
		}

		stats.TotalURLs += len(t.MentalHealthURLs)
	}

	for _, url := range um.order {
		results := um.attemptLog[url]
		urlSuccess := false

		for _, result := range results {
			stats.TotalAttempts += max(result.Attempts, 1)

			if result.Success {
				urlSuccess = true
				stats.Candidates += result.Candidates
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	TotalURLs      int
	SuccessfulURLs int
	FailedURLs     int
	TotalAttempts  int
	Candidates     int
	SkippedTargets int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d | Candidates: %d | Skipped targets: %d",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.Candidates,
		s.SkippedTargets,
	)
}

// LogAttemptSummary logs a summary of fetch attempts using the provided logger.
func (um *URLManager) LogAttemptSummary(l *logger.Logger) {
	l.Info("📊 Fetch Attempt Summary:")

	for _, url := range um.order {
		results := um.attemptLog[url]
		last := results[len(results)-1]

		status := "✅"
		if !last.Success {
			status = "❌ " + last.Error
		}

		l.Info(fmt.Sprintf("   %s %s (%d candidates, %.2fs)", status, url, last.Candidates, last.Duration.Seconds()),
			"institution", last.Institution)
	}

	l.Info(fmt.Sprintf("Overall: %s", um.GetAttemptStats()))
}
