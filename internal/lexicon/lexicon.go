// Package lexicon holds the keyword data used by the classifiers: the
// category taxonomy, toxic terms and words, negative emojis and danger
// keywords.
//
// A Lexicon is built once at startup and never mutated afterwards, so it
// can be shared between goroutines without locking.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Category maps a topical label to the keywords that select it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon is the immutable keyword set consulted by the classifiers.
type Lexicon struct {
	Fallback         string     `yaml:"fallback"`
	Categories       []Category `yaml:"categories"`
	ToxicTerms       []string   `yaml:"toxic_terms"`
	ToxicWords       []string   `yaml:"toxic_words"`
	NegativeEmojis   []string   `yaml:"negative_emojis"`
	DangerKeywords   []string   `yaml:"danger_keywords"`
	BlockedKeywords  []string   `yaml:"blocked_keywords"`
	VideoURLPatterns []string   `yaml:"video_url_patterns"`

	urlPatterns []*regexp.Regexp
}

// Default returns the lexicon compiled into the binary.
func Default() (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(defaultYAML, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse default lexicon: %w", err)
	}
	if err := lex.normalize(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// Load reads a lexicon override from path. Sections that the file leaves
// empty keep their default values. An empty path returns the default.
func Load(path string) (*Lexicon, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return Parse(data, base)
}

// Parse decodes YAML lexicon data on top of base.
func Parse(data []byte, base *Lexicon) (*Lexicon, error) {
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	lex := *base
	if override.Fallback != "" {
		lex.Fallback = override.Fallback
	}
	if len(override.Categories) > 0 {
		lex.Categories = override.Categories
	}
	if len(override.ToxicTerms) > 0 {
		lex.ToxicTerms = override.ToxicTerms
	}
	if len(override.ToxicWords) > 0 {
		lex.ToxicWords = override.ToxicWords
	}
	if len(override.NegativeEmojis) > 0 {
		lex.NegativeEmojis = override.NegativeEmojis
	}
	if len(override.DangerKeywords) > 0 {
		lex.DangerKeywords = override.DangerKeywords
	}
	if len(override.BlockedKeywords) > 0 {
		lex.BlockedKeywords = override.BlockedKeywords
	}
	if len(override.VideoURLPatterns) > 0 {
		lex.VideoURLPatterns = override.VideoURLPatterns
	}

	if err := lex.normalize(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// WithToxicTerms returns a copy of the lexicon with extra toxic terms merged
// in. The receiver is left untouched.
func (l *Lexicon) WithToxicTerms(extra []string) *Lexicon {
	if len(extra) == 0 {
		return l
	}
	merged := *l
	merged.ToxicTerms = dedupe(append(append([]string(nil), l.ToxicTerms...), lowerAll(extra)...))
	return &merged
}

// AcceptsVideoURL reports whether url matches one of the configured video
// URL patterns. With no patterns configured every URL is accepted.
func (l *Lexicon) AcceptsVideoURL(url string) bool {
	if len(l.urlPatterns) == 0 {
		return true
	}
	for _, re := range l.urlPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// CategoryNames lists the taxonomy labels in order.
func (l *Lexicon) CategoryNames() []string {
	names := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		names = append(names, c.Name)
	}
	return names
}

func (l *Lexicon) normalize() error {
	l.Fallback = strings.TrimSpace(l.Fallback)
	if l.Fallback == "" {
		l.Fallback = "general"
	}

	categories := make([]Category, 0, len(l.Categories))
	seen := make(map[string]bool)
	for _, c := range l.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("lexicon category without a name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate lexicon category %q", name)
		}
		seen[name] = true
		categories = append(categories, Category{Name: name, Keywords: dedupe(lowerAll(c.Keywords))})
	}
	l.Categories = categories

	l.ToxicTerms = dedupe(lowerAll(l.ToxicTerms))
	l.ToxicWords = dedupe(lowerAll(l.ToxicWords))
	l.DangerKeywords = dedupe(lowerAll(l.DangerKeywords))
	l.BlockedKeywords = dedupe(lowerAll(l.BlockedKeywords))
	emojis := make([]string, 0, len(l.NegativeEmojis))
	for _, e := range l.NegativeEmojis {
		emojis = append(emojis, StripVariationSelectors(strings.TrimSpace(e)))
	}
	l.NegativeEmojis = dedupe(emojis)

	l.urlPatterns = nil
	for _, p := range l.VideoURLPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid video URL pattern %q: %w", p, err)
		}
		l.urlPatterns = append(l.urlPatterns, re)
	}
	return nil
}

// StripVariationSelectors removes U+FE0E and U+FE0F so that an emoji matches
// with or without its presentation selector.
func StripVariationSelectors(s string) string {
	return variationSelectors.Replace(s)
}

var variationSelectors = strings.NewReplacer("\uFE0E", "", "\uFE0F", "")

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

// dedupe drops empty and repeated entries, keeping first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
