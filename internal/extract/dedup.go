package extract

import (
	"golang.org/x/text/cases"

	"mhdb/internal/models"
	"mhdb/pkg/utils"
)

// DedupKey normalizes a service name for identity comparison.
func DedupKey(name string) string {
	return cases.Fold().String(utils.NormalizeWhitespace(name))
}

// Dedup keeps the first resource for each normalized service name, in input order.
// Resources whose name normalizes to empty are dropped.
func Dedup(resources []models.Resource) []models.Resource {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(resources))
	out := make([]models.Resource, 0, len(resources))

	for _, r := range resources {
		key := folder.String(utils.NormalizeWhitespace(r.ServiceName))
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out
}

// Resources unwraps candidates into their resource records.
func Resources(candidates []Candidate) []models.Resource {
	out := make([]models.Resource, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Resource)
	}

	return out
}
