// Package normalizer cleans, validates and merges institution records before import.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"mhdb/internal/config"
	"mhdb/internal/models"
	"mhdb/pkg/utils"
)

// Validation errors. Reasons returned by Validate start with one of these.
var (
	ErrMissingField       = errors.New("missing required field")
	ErrNameTooShort       = errors.New("name too short")
	ErrLatitudeRange      = errors.New("latitude out of range")
	ErrLongitudeRange     = errors.New("longitude out of range")
	ErrInvalidWebsite     = errors.New("website is not an absolute http(s) URL")
	ErrNoResources        = errors.New("institution has no resources")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrShortDescription   = errors.New("description too short")
	ErrNoContact          = errors.New("no contact channel (email, phone or website)")
	ErrGarbageContent     = errors.New("looks like error-page content")
	ErrUnknownPolicy      = errors.New("unknown validation policy")
	ErrInvalidContactSite = errors.New("contact website is not an absolute http(s) URL")
)

// Resource field names as they appear in snapshot files.
const (
	FieldServiceName    = "service_name"
	FieldDescription    = "description"
	FieldContactEmail   = "contact_email"
	FieldContactPhone   = "contact_phone"
	FieldContactWebsite = "contact_website"
)

// phoneJunk is stripped before counting phone digits.
const phoneJunk = " -().+/\t"

var (
	emailShape     = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	garbagePattern = regexp.MustCompile(`(?i)\b404\b|page not found|\berror \d+|javascript required|enable javascript|just a moment|\bcookies?\b`)
)

// Policy holds the thresholds of one validation variant.
type Policy struct {
	Name                 string
	RequiredFields       []string
	MinNameLength        int
	MinDescriptionLength int
	CheckURLs            bool
	PhoneDigitsOnly      bool
	CheckGarbage         bool
}

// StrictPolicy requires every resource field and checks URLs and error-page content.
func StrictPolicy() Policy {
	return Policy{
		Name:                 config.PolicyStrict,
		RequiredFields:       []string{FieldServiceName, FieldDescription, FieldContactEmail, FieldContactPhone, FieldContactWebsite},
		MinNameLength:        3,
		MinDescriptionLength: 20,
		CheckURLs:            true,
		CheckGarbage:         true,
	}
}

// LoosePolicy requires a service name and one contact channel.
func LoosePolicy() Policy {
	return Policy{
		Name:                 config.PolicyLoose,
		RequiredFields:       []string{FieldServiceName},
		MinDescriptionLength: 10,
		PhoneDigitsOnly:      true,
	}
}

// PolicyByName returns the named policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case config.PolicyStrict:
		return StrictPolicy(), nil
	case config.PolicyLoose:
		return LoosePolicy(), nil
	}

	return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Validator applies a policy to institutions. It holds no state beyond the policy.
type Validator struct {
	policy Policy
}

// NewValidator creates a validator for the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Policy returns the validator's policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate reports whether inst is valid, with every reason it is not.
func (v *Validator) Validate(inst *models.Institution) (bool, []string) {
	issues := v.Check(inst)

	reasons := make([]string, 0, len(issues))
	for _, err := range issues {
		reasons = append(reasons, err.Error())
	}

	return len(issues) == 0, reasons
}

// Check returns the validation failures of inst as wrapped errors.
func (v *Validator) Check(inst *models.Institution) []error {
	var issues []error

	if strings.TrimSpace(inst.Name) == "" {
		issues = append(issues, fmt.Errorf("%w: name", ErrMissingField))
	} else if utf8.RuneCountInString(strings.TrimSpace(inst.Name)) < v.policy.MinNameLength {
		issues = append(issues, fmt.Errorf("%w: %q (minimum %d characters)", ErrNameTooShort, inst.Name, v.policy.MinNameLength))
	}

	if strings.TrimSpace(inst.Location) == "" {
		issues = append(issues, fmt.Errorf("%w: location", ErrMissingField))
	}

	if inst.Latitude == nil {
		issues = append(issues, fmt.Errorf("%w: latitude", ErrMissingField))
	} else if lat := *inst.Latitude; !(lat >= -90 && lat <= 90) {
		issues = append(issues, fmt.Errorf("%w: %v", ErrLatitudeRange, lat))
	}

	if inst.Longitude == nil {
		issues = append(issues, fmt.Errorf("%w: longitude", ErrMissingField))
	} else if lon := *inst.Longitude; !(lon >= -180 && lon <= 180) {
		issues = append(issues, fmt.Errorf("%w: %v", ErrLongitudeRange, lon))
	}

	if strings.TrimSpace(inst.Website) == "" {
		issues = append(issues, fmt.Errorf("%w: website", ErrMissingField))
	} else if v.policy.CheckURLs && !utils.IsHTTPURL(inst.Website) {
		issues = append(issues, fmt.Errorf("%w: %s", ErrInvalidWebsite, inst.Website))
	}

	if len(inst.Resources) == 0 {
		issues = append(issues, ErrNoResources)
	}

	for i := range inst.Resources {
		for _, err := range v.CheckResource(&inst.Resources[i]) {
			issues = append(issues, fmt.Errorf("resource[%d]: %w", i, err))
		}
	}

	return issues
}

// CheckResource returns the validation failures of a single resource.
func (v *Validator) CheckResource(r *models.Resource) []error {
	var issues []error

	for _, field := range v.policy.RequiredFields {
		if strings.TrimSpace(resourceField(r, field)) == "" {
			issues = append(issues, fmt.Errorf("%w: %s", ErrMissingField, field))
		}
	}

	if r.ContactEmail != "" && !emailShape.MatchString(strings.TrimSpace(r.ContactEmail)) {
		issues = append(issues, fmt.Errorf("%w: %s", ErrInvalidEmail, r.ContactEmail))
	}

	if r.ContactPhone != "" && !v.plausiblePhone(r.ContactPhone) {
		issues = append(issues, fmt.Errorf("%w: %s", ErrInvalidPhone, r.ContactPhone))
	}

	if v.policy.CheckURLs && r.ContactWebsite != "" && !utils.IsHTTPURL(r.ContactWebsite) {
		issues = append(issues, fmt.Errorf("%w: %s", ErrInvalidContactSite, r.ContactWebsite))
	}

	if desc := strings.TrimSpace(r.Description); desc != "" && utf8.RuneCountInString(desc) < v.policy.MinDescriptionLength {
		issues = append(issues, fmt.Errorf("%w: %d characters (minimum %d)", ErrShortDescription, utf8.RuneCountInString(desc), v.policy.MinDescriptionLength))
	}

	if !r.HasContact() {
		issues = append(issues, ErrNoContact)
	}

	if v.policy.CheckGarbage {
		for _, text := range []string{r.ServiceName, r.Description} {
			if m := garbagePattern.FindString(text); m != "" {
				issues = append(issues, fmt.Errorf("%w: %q", ErrGarbageContent, m))
				break
			}
		}
	}

	return issues
}

func (v *Validator) plausiblePhone(phone string) bool {
	stripped := utils.StripChars(phone, phoneJunk)
	if utils.CountDigits(stripped) < 7 {
		return false
	}

	if !v.policy.PhoneDigitsOnly {
		return true
	}

	for _, r := range stripped {
		if (r < '0' || r > '9') && r != 'x' && r != 'X' {
			return false
		}
	}

	return true
}

func resourceField(r *models.Resource, field string) string {
	switch field {
	case FieldServiceName:
		return r.ServiceName
	case FieldDescription:
		return r.Description
	case FieldContactEmail:
		return r.ContactEmail
	case FieldContactPhone:
		return r.ContactPhone
	case FieldContactWebsite:
		return r.ContactWebsite
	}

	return ""
}
