package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces the politeness delay between page fetches and between institutions.
// The first wait on each limiter returns immediately. Calling PageDone or
// InstitutionDone when the work finishes makes the next wait last a full
// delay from that moment, so slow fetches still leave a gap.
type Pacer struct {
	page             *rate.Limiter
	institution      *rate.Limiter
	pageDelay        time.Duration
	institutionDelay time.Duration
}

// NewPacer creates a pacer. A zero delay disables that wait.
func NewPacer(pageDelay, institutionDelay time.Duration) *Pacer {
	return &Pacer{
		page:             newLimiter(pageDelay),
		institution:      newLimiter(institutionDelay),
		pageDelay:        pageDelay,
		institutionDelay: institutionDelay,
	}
}

// WaitPage blocks until the next page fetch may start.
func (p *Pacer) WaitPage(ctx context.Context) error {
	return p.page.Wait(ctx)
}

// WaitInstitution blocks until the next institution may start.
func (p *Pacer) WaitInstitution(ctx context.Context) error {
	return p.institution.Wait(ctx)
}

// PageDone restarts the page interval at the end of a fetch.
func (p *Pacer) PageDone() {
	p.page = drainedLimiter(p.pageDelay)
}

// InstitutionDone restarts the institution interval at the end of an institution.
func (p *Pacer) InstitutionDone() {
	p.institution = drainedLimiter(p.institutionDelay)
}

func newLimiter(delay time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}

// drainedLimiter returns a limiter whose next token is one delay away.
func drainedLimiter(delay time.Duration) *rate.Limiter {
	lim := newLimiter(delay)
	lim.Allow()

	return lim
}
