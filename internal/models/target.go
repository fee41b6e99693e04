package models

// SourceManual marks a target that is curated by hand in the seed file.
const SourceManual = "manual"

// TargetSet is the list of institutions a crawl should visit.
type TargetSet struct {
	Colleges []Target `json:"colleges"`
	States   []string `json:"states"`
}

// Target identifies an institution and the pages that describe its services.
type Target struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Name             string   `json:"name"`
	ShortName        string   `json:"short_name,omitempty"`
	State            string   `json:"state"`
	Location         string   `json:"location"`
	Website          string   `json:"website"`
	Source           string   `json:"source,omitempty"`
	MentalHealthURLs []string `json:"mental_health_urls"`
}

// IsManual reports whether the target is sourced from the seed file.
func (t *Target) IsManual() bool {
	return t.Source == SourceManual
}

// Crawlable returns the targets the extraction pipeline should fetch.
func (s *TargetSet) Crawlable() []Target {
	var out []Target

	for _, t := range s.Colleges {
		if t.IsManual() {
			continue
		}

		out = append(out, t)
	}

	return out
}
