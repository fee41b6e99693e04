// Package extract turns parsed pages into candidate resource records.
//
// Extraction is heuristic: a lexical quality score gates which page regions
// are used, and typed fields are pulled out with first-match regular
// expressions.
package extract

import "regexp"

// Contact patterns shared by the scorer and the field extractor.
var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// Selector groups used by the candidate strategies.
const (
	sectionSelector   = "div, section, article"
	headingSelector   = "h1, h2, h3, h4"
	anyHeading        = "h1, h2, h3, h4, h5, h6"
	ignoredSelector   = "script, style, noscript, template"
	defaultFallbackTo = "Counseling and Mental Health Services"
)

var sectionClassPattern = regexp.MustCompile(`(?i)contact|service|resource`)
