package normalizer

import (
	"time"

	"mhdb/internal/extract"
	"mhdb/internal/models"
	"mhdb/pkg/utils"
)

// Transformer cleans institution records. It never mutates its input.
type Transformer struct {
	now func() time.Time
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

// Transform returns a cleaned copy of inst: whitespace normalized, resources
// deduplicated by service name, and a creation timestamp when none is set.
func (t *Transformer) Transform(inst models.Institution) models.Institution {
	out := inst
	out.Name = utils.NormalizeWhitespace(inst.Name)
	out.State = utils.NormalizeWhitespace(inst.State)
	out.Location = utils.NormalizeWhitespace(inst.Location)
	out.Website = utils.NormalizeWhitespace(inst.Website)

	if out.ScrapedAt.IsZero() {
		out.ScrapedAt = t.now().UTC()
	}

	resources := make([]models.Resource, 0, len(inst.Resources))
	for _, r := range inst.Resources {
		resources = append(resources, cleanResource(r))
	}

	out.Resources = extract.Dedup(resources)

	return out
}

func cleanResource(r models.Resource) models.Resource {
	return models.Resource{
		ServiceName:    utils.NormalizeWhitespace(r.ServiceName),
		Description:    utils.NormalizeWhitespace(r.Description),
		ContactEmail:   utils.NormalizeWhitespace(r.ContactEmail),
		ContactPhone:   utils.NormalizeWhitespace(r.ContactPhone),
		ContactWebsite: utils.NormalizeWhitespace(r.ContactWebsite),
		Department:     utils.NormalizeWhitespace(r.Department),
		OfficeHours:    utils.NormalizeWhitespace(r.OfficeHours),
		Location:       utils.NormalizeWhitespace(r.Location),
		FreshmanNotes:  utils.NormalizeWhitespace(r.FreshmanNotes),
	}
}

// Merge puts curated seed institutions ahead of scraped ones. A scraped
// institution whose name matches a seed entry is dropped and its name returned.
func Merge(seed, scraped []models.Institution) ([]models.Institution, []string) {
	out := make([]models.Institution, 0, len(seed)+len(scraped))
	names := make(map[string]struct{}, len(seed)+len(scraped))

	var dropped []string

	for _, group := range [][]models.Institution{seed, scraped} {
		for _, inst := range group {
			key := extract.DedupKey(inst.Name)
			if _, ok := names[key]; ok {
				dropped = append(dropped, inst.Name)
				continue
			}

			names[key] = struct{}{}
			out = append(out, inst)
		}
	}

	return out, dropped
}
