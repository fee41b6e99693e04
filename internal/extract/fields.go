package extract

import (
	"regexp"
	"unicode/utf8"

	"mhdb/pkg/utils"
)

const (
	maxSnippetLength = 200
	freshmanBefore   = 100
	freshmanAfter    = 300
)

// Fields holds the typed values pulled from a text span.
type Fields struct {
	Email         string
	Phone         string
	OfficeHours   string
	Location      string
	FreshmanNotes string
}

// HasContact reports whether an email or phone was found.
func (f Fields) HasContact() bool {
	return f.Email != "" || f.Phone != ""
}

// FieldExtractor pulls the first email, phone, hours, location and
// freshman note out of free text.
type FieldExtractor struct {
	emailPattern    *regexp.Regexp
	phonePattern    *regexp.Regexp
	hoursPattern    *regexp.Regexp
	locationPattern *regexp.Regexp
	freshmanPattern *regexp.Regexp
}

// NewFieldExtractor creates a field extractor.
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{
		emailPattern: emailPattern,
		phonePattern: phonePattern,
		// A weekday, then anything up to the last time marker before the span ends.
		// The periods of "a.m." and "p.m." do not end the span.
		hoursPattern: regexp.MustCompile(`(?i)\b(?:mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:r(?:s(?:day)?)?)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)\b(?:[^.;\n]|[ap]\.m\.)*(?:\d{1,2}(?::\d{2})?\s*(?:[ap]\.m\.|[ap]\.?m\b)|\d{1,2}:\d{2}\b)`),
		locationPattern: regexp.MustCompile(`(?i)\b(?:room|building|hall|floor|suite|center|centre|address)\b[\s:,]*[\w\s,.#'-]{5,100}`),
		freshmanPattern: regexp.MustCompile(`(?i)freshm[ae]n|first[- ]year|new students?|incoming students?`),
	}
}

// Extract runs every extractor over text.
func (e *FieldExtractor) Extract(text string) Fields {
	return Fields{
		Email:         e.Email(text),
		Phone:         e.Phone(text),
		OfficeHours:   e.OfficeHours(text),
		Location:      e.Location(text),
		FreshmanNotes: e.FreshmanNotes(text),
	}
}

// Email returns the first email address in text.
func (e *FieldExtractor) Email(text string) string {
	return utils.NormalizeWhitespace(e.emailPattern.FindString(text))
}

// Phone returns the first North-American phone number in text.
func (e *FieldExtractor) Phone(text string) string {
	match := utils.NormalizeWhitespace(e.phonePattern.FindString(text))
	if utils.CountDigits(match) < 10 {
		return ""
	}

	return match
}

// OfficeHours returns the first weekday-anchored span that carries a time.
func (e *FieldExtractor) OfficeHours(text string) string {
	match := utils.NormalizeWhitespace(e.hoursPattern.FindString(text))

	return utils.Truncate(match, maxSnippetLength)
}

// Location returns the first building-keyword fragment in text.
func (e *FieldExtractor) Location(text string) string {
	match := utils.NormalizeWhitespace(e.locationPattern.FindString(text))

	return utils.Truncate(match, maxSnippetLength)
}

// FreshmanNotes returns the context around the first first-year keyword,
// measured in characters.
func (e *FieldExtractor) FreshmanNotes(text string) string {
	loc := e.freshmanPattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	runes := []rune(text)
	at := utf8.RuneCountInString(text[:loc[0]])

	start := max(at-freshmanBefore, 0)
	end := min(at+freshmanAfter, len(runes))

	return utils.NormalizeWhitespace(string(runes[start:end]))
}
