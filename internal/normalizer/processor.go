package normalizer

import (
	"mhdb/internal/models"
)

// Rejection is an institution that failed validation.
type Rejection struct {
	Institution models.Institution
	Reasons     []string
}

// Result splits processed institutions into accepted and rejected sets.
type Result struct {
	Accepted []models.Institution
	Rejected []Rejection
}

// Processor transforms and then validates institutions.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	skip        bool
}

// NewProcessor creates a processor. When skipValidation is set every
// institution is accepted unchecked.
func NewProcessor(policy Policy, skipValidation bool) *Processor {
	return &Processor{
		validator:   NewValidator(policy),
		transformer: NewTransformer(),
		skip:        skipValidation,
	}
}

// Validator returns the processor's validator.
func (p *Processor) Validator() *Validator {
	return p.validator
}

// Process cleans each institution and sorts it into accepted or rejected.
func (p *Processor) Process(insts []models.Institution) *Result {
	res := &Result{}

	for _, raw := range insts {
		inst := p.transformer.Transform(raw)

		if p.skip {
			res.Accepted = append(res.Accepted, inst)
			continue
		}

		ok, reasons := p.validator.Validate(&inst)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Institution: inst, Reasons: reasons})
			continue
		}

		res.Accepted = append(res.Accepted, inst)
	}

	return res
}
