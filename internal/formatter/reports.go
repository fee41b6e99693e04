package formatter

import (
	"strconv"
	"strings"

	"mhdb/internal/normalizer"
	"mhdb/internal/payload"
)

// ValidationTables lays out a data-quality report: overall stats, then one
// row per failing reason.
func ValidationTables(rep *normalizer.Report) []Table {
	s := rep.Stats

	tables := []Table{{
		Title:  "Validation (" + rep.Policy + " policy)",
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Colleges", strconv.Itoa(s.Colleges)},
			{"Resources", strconv.Itoa(s.Resources)},
			{"Valid colleges", strconv.Itoa(s.Valid)},
			{"Colleges with issues", strconv.Itoa(s.WithIssues)},
			{"Colleges without resources", strconv.Itoa(s.EmptyResources)},
			{"Resources without contact", strconv.Itoa(s.NoContact)},
			{"Short descriptions", strconv.Itoa(s.ShortDescription)},
		},
	}}

	if !rep.HasIssues() {
		return tables
	}

	issues := Table{Title: "Issues", Header: []string{"College", "Reason"}}

	for _, ci := range rep.Issues {
		for i, reason := range ci.Reasons {
			name := ""
			if i == 0 {
				name = Cell(ci.Name)
			}

			issues.Rows = append(issues.Rows, []string{name, Cell(reason)})
		}
	}

	return append(tables, issues)
}

// StatusTables lays out the store contents and, when targets were given, the
// targets the store has no record of.
func StatusTables(colleges []payload.StoredCollege, missing []string) []Table {
	totalResources := 0

	store := Table{Title: "Store", Header: []string{"ID", "College", "Resources", "Services"}}

	for _, c := range colleges {
		totalResources += len(c.Resources)

		names := make([]string, 0, len(c.Resources))
		for _, r := range c.Resources {
			names = append(names, r.ServiceName)
		}

		store.Rows = append(store.Rows, []string{
			strconv.Itoa(c.ID),
			Cell(c.Name),
			strconv.Itoa(len(c.Resources)),
			Cell(strings.Join(names, ", ")),
		})
	}

	store.Rows = append(store.Rows, []string{"", "Total: " + strconv.Itoa(len(colleges)), strconv.Itoa(totalResources), ""})

	tables := []Table{store}

	if len(missing) > 0 {
		failed := Table{Title: "Failed to scrape", Header: []string{"College"}}
		for _, name := range missing {
			failed.Rows = append(failed.Rows, []string{Cell(name)})
		}

		tables = append(tables, failed)
	}

	return tables
}
