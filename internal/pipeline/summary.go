package pipeline

import (
	"strconv"
	"time"

	"mhdb/internal/formatter"
)

// Tables lays out the summary tally for the terminal.
func (s *Summary) Tables() []formatter.Table {
	tally := formatter.Table{
		Title:  "Run " + s.RunID,
		Header: []string{"Stage", "Count"},
		Rows: [][]string{
			{"Targets", strconv.Itoa(s.Targets)},
			{"Skipped (manual)", strconv.Itoa(s.Skipped)},
			{"Scraped", strconv.Itoa(s.Scraped)},
			{"Seeded", strconv.Itoa(s.Seeded)},
			{"Pages fetched", strconv.Itoa(s.Attempts.SuccessfulURLs) + "/" + strconv.Itoa(s.Attempts.TotalURLs)},
			{"Accepted", strconv.Itoa(s.Accepted)},
			{"Rejected", strconv.Itoa(len(s.Rejected))},
			{"Resources", strconv.Itoa(s.Resources)},
			{"Snapshot", s.Output},
			{"Snapshot digest", s.SnapshotDigest},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
		},
	}

	if s.Import != nil {
		tally.Rows = append(tally.Rows,
			[]string{"Imported colleges", strconv.Itoa(s.Import.SentColleges)},
			[]string{"Store colleges", strconv.Itoa(s.Import.Colleges)},
			[]string{"Store resources", strconv.Itoa(s.Import.Resources)},
		)
	}

	tables := []formatter.Table{tally}

	if len(s.FailedInstitutions) > 0 {
		failed := formatter.Table{Title: "No page fetched", Header: []string{"Institution"}}
		for _, name := range s.FailedInstitutions {
			failed.Rows = append(failed.Rows, []string{formatter.Cell(name)})
		}

		tables = append(tables, failed)
	}

	if len(s.Rejected) > 0 {
		rejected := formatter.Table{Title: "Rejected", Header: []string{"Institution", "Reasons"}}
		for _, rej := range s.Rejected {
			rejected.Rows = append(rejected.Rows, []string{
				formatter.Cell(rej.Institution.Name),
				strconv.Itoa(len(rej.Reasons)) + ": " + formatter.Cell(rej.Reasons[0]),
			})
		}

		tables = append(tables, rejected)
	}

	return tables
}
