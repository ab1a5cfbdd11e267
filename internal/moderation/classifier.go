package moderation

import "strings"

// Classifier decides whether a message body matches the spam catalog.
// It holds no mutable state: for a fixed catalog the result is a pure
// function of the input text.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a classifier over the given catalog.
func NewClassifier(catalog *Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify reports whether text matches any catalog signature. Empty text
// is never spam. Classification is a boolean OR over all signatures with
// no scoring: one hit anywhere is enough.
func (c *Classifier) Classify(text string) bool {
	_, spam := c.Explain(text)
	return spam
}

// Explain classifies text and additionally returns the first signature that
// fired, for FLAGGED logs and the rulecheck CLI. Which signature fires first
// depends on catalog order, but the boolean verdict does not.
func (c *Classifier) Explain(text string) (Signature, bool) {
	if text == "" {
		return Signature{}, false
	}

	// Fast path: one lowercase pass, cheap substring scan. The keyword set
	// mirrors the catalog's literal signatures, so this only surfaces true
	// positives earlier, it never adds matches the deep pass lacks.
	lower := strings.ToLower(text)
	for i, kw := range c.catalog.keywords {
		if strings.Contains(lower, kw) {
			return c.catalog.sigs[i], true
		}
	}

	// Deep path: every signature in catalog order, first match wins.
	for _, sig := range c.catalog.sigs {
		if sig.Matches(text) {
			return sig, true
		}
	}

	return Signature{}, false
}
