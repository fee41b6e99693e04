package normalizer

import (
	"strings"
	"unicode/utf8"

	"mhdb/internal/models"
)

// Stats summarizes a data-quality pass over a set of institutions.
type Stats struct {
	Colleges         int
	Resources        int
	Valid            int
	WithIssues       int
	EmptyResources   int
	NoContact        int
	ShortDescription int
}

// CollegeIssues lists the reasons one institution failed.
type CollegeIssues struct {
	Name    string
	Reasons []string
}

// Report is the outcome of validating a whole file.
type Report struct {
	Policy string
	Issues []CollegeIssues
	Stats  Stats
}

// HasIssues reports whether any institution failed.
func (r *Report) HasIssues() bool {
	return r.Stats.WithIssues > 0
}

// Report validates every institution and tallies the results.
func (v *Validator) Report(insts []models.Institution) *Report {
	rep := &Report{Policy: v.policy.Name}

	for i := range insts {
		inst := &insts[i]
		rep.Stats.Colleges++
		rep.Stats.Resources += len(inst.Resources)

		if len(inst.Resources) == 0 {
			rep.Stats.EmptyResources++
		}

		for j := range inst.Resources {
			r := &inst.Resources[j]
			if !r.HasContact() {
				rep.Stats.NoContact++
			}

			if desc := strings.TrimSpace(r.Description); desc != "" && utf8.RuneCountInString(desc) < v.policy.MinDescriptionLength {
				rep.Stats.ShortDescription++
			}
		}

		ok, reasons := v.Validate(inst)
		if ok {
			rep.Stats.Valid++
			continue
		}

		rep.Stats.WithIssues++
		rep.Issues = append(rep.Issues, CollegeIssues{Name: inst.Name, Reasons: reasons})
	}

	return rep
}
