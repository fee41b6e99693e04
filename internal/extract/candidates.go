package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"mhdb/internal/config"
	"mhdb/internal/models"
	"mhdb/pkg/utils"
)

// Strategy names recorded on candidates.
const (
	StrategySection  = "section"
	StrategyHeading  = "heading"
	StrategyFallback = "fallback"
)

const (
	maxDescriptionLength   = 500
	minFallbackDescription = 50
)

// Candidate is a resource produced by extraction, before dedup and validation.
type Candidate struct {
	Strategy string
	Resource models.Resource
	Score    int
}

// Page is a parsed HTML document with its source URL.
type Page struct {
	doc   *goquery.Document
	url   string
	order map[*html.Node]int
}

// NewPage parses an HTML document. Script-like elements are removed.
func NewPage(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(ignoredSelector).Remove()

	page := &Page{
		doc:   doc,
		url:   pageURL,
		order: make(map[*html.Node]int),
	}

	i := 0

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		page.order[n] = i
		i++

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}

	return page, nil
}

// NewPageFromString parses an HTML string.
func NewPageFromString(body, pageURL string) (*Page, error) {
	return NewPage(strings.NewReader(body), pageURL)
}

// URL returns the page's source URL.
func (p *Page) URL() string {
	return p.url
}

// Text returns the whitespace-normalized text of the whole document.
func (p *Page) Text() string {
	return selectionText(p.doc.Selection)
}

// strategy produces zero or more candidates from a page, independently of the others.
type strategy func(b *Builder, p *Page) []Candidate

// Builder runs the extraction strategies over a page.
type Builder struct {
	scorer     *Scorer
	fields     *FieldExtractor
	primary    []strategy
	fallback   strategy
	keywords   []string
	department string
	freshman   string
	minScore   int
	sections   int
	headings   int
	siblings   int
}

// NewBuilder creates a candidate builder from the extraction settings.
func NewBuilder(cfg config.ExtractionConfig) *Builder {
	keywords := make([]string, 0, len(cfg.HeadingKeywords))
	for _, kw := range cfg.HeadingKeywords {
		keywords = append(keywords, strings.ToLower(kw))
	}

	return &Builder{
		scorer:     NewScorer(cfg),
		fields:     NewFieldExtractor(),
		primary:    []strategy{(*Builder).fromSections, (*Builder).fromHeadings},
		fallback:   (*Builder).fromWholePage,
		keywords:   keywords,
		department: cfg.DefaultDepartment,
		freshman:   cfg.FreshmanFallback,
		minScore:   cfg.MinQualityScore,
		sections:   cfg.MaxSections,
		headings:   cfg.MaxHeadings,
		siblings:   cfg.MaxSiblings,
	}
}

// Scorer returns the builder's content scorer.
func (b *Builder) Scorer() *Scorer {
	return b.scorer
}

// Build returns the page's candidates in strategy order. The whole-page
// fallback only runs when no other strategy produced anything.
func (b *Builder) Build(p *Page) []Candidate {
	var out []Candidate

	for _, produce := range b.primary {
		out = append(out, produce(b, p)...)
	}

	if len(out) == 0 {
		out = b.fallback(b, p)
	}

	return out
}

// fromSections uses div/section/article regions whose class names suggest contact or service content.
func (b *Builder) fromSections(p *Page) []Candidate {
	var out []Candidate

	seen := 0

	p.doc.Find(sectionSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if !sectionClassPattern.MatchString(class) {
			return true
		}

		seen++

		text := selectionText(sel)

		score := b.scorer.Score(text)
		if score < b.minScore {
			return seen < b.sections
		}

		name := selectionText(sel.Find(anyHeading).First())
		if name != "" {
			desc := utils.Truncate(selectionText(sel.Find("p").First()), maxDescriptionLength)
			out = append(out, b.candidate(StrategySection, p, name, desc, text, score))
		}

		return seen < b.sections
	})

	return out
}

// fromHeadings uses relevant headings and the sibling content that follows them.
func (b *Builder) fromHeadings(p *Page) []Candidate {
	var out []Candidate

	paragraphs := p.doc.Find("p")

	p.doc.Find(headingSelector).EachWithBreak(func(i int, h *goquery.Selection) bool {
		if i >= b.headings {
			return false
		}

		name := selectionText(h)
		if !b.relevantHeading(name) {
			return true
		}

		level := headingLevel(h)
		parts := []string{name}

		h.NextAll().EachWithBreak(func(j int, sib *goquery.Selection) bool {
			if j >= b.siblings {
				return false
			}

			if l := headingLevel(sib); l > 0 && l <= level {
				return false
			}

			parts = append(parts, selectionText(sib))

			return true
		})

		block := strings.Join(parts, " ")

		score := b.scorer.Score(block)
		if score < b.minScore {
			return true
		}

		desc := utils.Truncate(p.firstAfter(paragraphs, h), maxDescriptionLength)
		out = append(out, b.candidate(StrategyHeading, p, name, desc, block, score))

		return true
	})

	return out
}

// fromWholePage builds one candidate from the page title and full text.
func (b *Builder) fromWholePage(p *Page) []Candidate {
	text := p.Text()

	score := b.scorer.Score(text)
	if score < b.minScore {
		return nil
	}

	name := selectionText(p.doc.Find("h1").First())
	if name == "" {
		name = defaultFallbackTo
	}

	var desc string

	p.doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t := selectionText(sel)
		if utf8.RuneCountInString(t) >= minFallbackDescription {
			desc = utils.Truncate(t, maxDescriptionLength)
			return false
		}

		return true
	})

	c := b.candidate(StrategyFallback, p, name, desc, text, score)
	if c.Resource.ContactEmail == "" && c.Resource.ContactPhone == "" && c.Resource.Description == "" {
		return nil
	}

	return []Candidate{c}
}

func (b *Builder) candidate(source string, p *Page, name, desc, text string, score int) Candidate {
	f := b.fields.Extract(text)

	notes := f.FreshmanNotes
	if notes == "" {
		notes = b.freshman
	}

	return Candidate{
		Strategy: source,
		Score:    score,
		Resource: models.Resource{
			ServiceName:    name,
			Description:    desc,
			ContactEmail:   f.Email,
			ContactPhone:   f.Phone,
			ContactWebsite: p.url,
			Department:     b.department,
			OfficeHours:    f.OfficeHours,
			Location:       f.Location,
			FreshmanNotes:  notes,
		},
	}
}

func (b *Builder) relevantHeading(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range b.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}

// firstAfter returns the text of the first node in sel that follows ref in document order.
func (p *Page) firstAfter(sel, ref *goquery.Selection) string {
	if ref.Length() == 0 {
		return ""
	}

	pos := p.order[ref.Get(0)]

	for _, n := range sel.Nodes {
		if p.order[n] > pos {
			return nodesText(n)
		}
	}

	return ""
}

// headingLevel returns 1..6 for heading elements and 0 for anything else.
func headingLevel(sel *goquery.Selection) int {
	name := goquery.NodeName(sel)
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}

	return 0
}

func selectionText(sel *goquery.Selection) string {
	return nodesText(sel.Nodes...)
}

// nodesText joins the text nodes under nodes with spaces so adjacent
// block elements do not run together.
func nodesText(nodes ...*html.Node) string {
	var sb strings.Builder

	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}

	for _, n := range nodes {
		collect(n)
	}

	return utils.NormalizeWhitespace(sb.String())
}
