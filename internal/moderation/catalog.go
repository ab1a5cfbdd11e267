// Package moderation provides the spam signature catalog and the message
// classifier built on top of it. The catalog is compiled once at startup
// from the built-in rule set and is immutable afterwards, so it is safe
// for concurrent use without locking.
package moderation

import (
	"regexp"
	"strings"
)

// Signature kinds.
const (
	KindLiteral = "literal"
	KindPattern = "pattern"
)

// Signature categories. Categories are observability-only: they name which
// family of rules fired in logs and audit rows, they never change the verdict.
const (
	CategoryLink         = "link"
	CategoryContact      = "contact"
	CategorySolicitation = "solicitation"
	CategoryWork         = "work"
	CategoryFinancial    = "financial"
	CategoryMoney        = "money"
	CategoryUrgency      = "urgency"
	CategoryRecruiting   = "recruiting"
)

// Matcher is the uniform capability every signature exposes. Both literal
// and regex signatures implement it, so the catalog is a single ordered
// sequence rather than a type switch per signature kind.
type Matcher interface {
	Matches(text string) bool
}

// literalMatcher matches a lowercase keyword as a case-insensitive substring.
type literalMatcher string

func (m literalMatcher) Matches(text string) bool {
	return strings.Contains(strings.ToLower(text), string(m))
}

// regexMatcher matches a compiled case-insensitive pattern.
type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Matches(text string) bool {
	return m.re.MatchString(text)
}

// Signature is one spam indicator: a matcher plus metadata for diagnostics.
// Immutable after catalog construction.
type Signature struct {
	Kind     string
	Category string
	Source   string // the keyword or pattern text the signature was built from
	matcher  Matcher
}

// Matches reports whether the signature fires on text.
func (s Signature) Matches(text string) bool {
	return s.matcher.Matches(text)
}

// Catalog is the immutable, ordered collection of all signatures plus a
// fast-path set of lowercase literal keywords. The keyword set is exactly
// the literal signatures' keywords, so a fast-path hit is always a strict
// subset of what the full signature pass would catch.
type Catalog struct {
	sigs     []Signature
	keywords []string
}

// BuildCatalog compiles the built-in rule set into a catalog. It is invoked
// once at startup; a pattern that fails to compile is a programmer error in
// rules.go and panics via regexp.MustCompile.
func BuildCatalog() *Catalog {
	c := &Catalog{}

	for _, kw := range literalKeywords {
		kw = strings.ToLower(kw)
		c.keywords = append(c.keywords, kw)
		c.sigs = append(c.sigs, Signature{
			Kind:     KindLiteral,
			Category: keywordCategory(kw),
			Source:   kw,
			matcher:  literalMatcher(kw),
		})
	}

	for _, r := range patternRules {
		c.sigs = append(c.sigs, Signature{
			Kind:     KindPattern,
			Category: r.category,
			Source:   r.pattern,
			matcher:  regexMatcher{re: regexp.MustCompile(`(?i)` + r.pattern)},
		})
	}

	return c
}

// Signatures returns the ordered signature sequence.
func (c *Catalog) Signatures() []Signature {
	return c.sigs
}

// Keywords returns the fast-path lowercase keyword set.
func (c *Catalog) Keywords() []string {
	return c.keywords
}

// Len returns the number of signatures in the catalog.
func (c *Catalog) Len() int {
	return len(c.sigs)
}
