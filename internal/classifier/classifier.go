// Package classifier tags content with topical categories and decides
// whether videos and comments are safe for a child.
package classifier

import (
	"strings"

	"safeguard/internal/lexicon"
	"safeguard/internal/models"
)

// Classifier runs the local keyword rules of a lexicon. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	lex *lexicon.Lexicon
}

// New creates a classifier over lex
func New(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Lexicon returns the keyword data the classifier was built with
func (c *Classifier) Lexicon() *lexicon.Lexicon {
	return c.lex
}

// Categorize returns every taxonomy category whose keywords occur in the
// combined text, in taxonomy order. It never returns an empty list: when
// nothing matches, the lexicon's fallback label is returned on its own.
func (c *Classifier) Categorize(title, description, transcript string) []string {
	text := foldText(title, description, transcript)

	var categories []string
	for _, category := range c.lex.Categories {
		if containsAny(text, category.Keywords) {
			categories = append(categories, category.Name)
		}
	}

	if len(categories) == 0 {
		return []string{c.lex.Fallback}
	}
	return categories
}

// ScoreContent scans a video's text for danger keywords. Each danger hit
// adds a high severity flag and raises the rating to warning; a blocked
// keyword hit adds a critical flag and raises it to blocked.
func (c *Classifier) ScoreContent(title, description, transcript string) models.ContentVerdict {
	text := foldText(transcript, title, description)
	verdict := models.ContentVerdict{Rating: models.RatingSafe, Flags: []models.SafetyFlag{}}

	for _, keyword := range c.lex.DangerKeywords {
		if strings.Contains(text, keyword) {
			verdict.Flags = append(verdict.Flags, models.SafetyFlag{Issue: keyword, Severity: models.SeverityHigh})
			verdict.Rating = models.RatingWarning
		}
	}

	for _, keyword := range c.lex.BlockedKeywords {
		if strings.Contains(text, keyword) {
			verdict.Flags = append(verdict.Flags, models.SafetyFlag{Issue: keyword, Severity: models.SeverityCritical})
			verdict.Rating = models.RatingBlocked
		}
	}

	return verdict
}

func foldText(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
