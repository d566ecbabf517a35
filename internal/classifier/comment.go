package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"safeguard/internal/lexicon"
	"safeguard/internal/metrics"
	"safeguard/internal/models"
)

// Source names the pipeline stage that produced a comment verdict
type Source string

const (
	SourceKeyword Source = "keyword"
	SourceEmoji   Source = "emoji"
	SourceRemote  Source = "remote"
	SourceDefault Source = "default"
)

// Verdict reasons
const (
	ReasonEmpty          = "empty comment"
	ReasonToxicLanguage  = "contains inappropriate language"
	ReasonAngryEmojis    = "excessive angry emojis"
	ReasonRemoteFallback = "inappropriate content"
	ReasonSafe           = "safe content"
	ReasonNeedsReview    = "needs review"
)

// FailureMode decides what a remote classifier failure turns into
type FailureMode string

const (
	// FailOpen treats a failed remote call as no verdict, so the comment is shown.
	FailOpen FailureMode = "open"
	// FailReview keeps the comment visible but marks it for guardian review.
	FailReview FailureMode = "review"
)

// ParseFailureMode maps a config value to a FailureMode
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailOpen:
		return FailOpen, nil
	case FailReview:
		return FailReview, nil
	default:
		return "", fmt.Errorf("unknown remote failure mode %q", s)
	}
}

// CommentVerdict is the outcome of running a comment through the pipeline
type CommentVerdict struct {
	Hide        bool   `json:"hide"`
	Severity    int    `json:"severity"`
	Reason      string `json:"reason"`
	Source      Source `json:"source"`
	NeedsReview bool   `json:"needs_review,omitempty"`
	EmojiCount  int    `json:"angry_emojis"`
}

// RemoteVerdict is what a remote text classifier answered
type RemoteVerdict struct {
	Toxic  bool
	Reason string
}

// Remote is an external text classifier consulted after the local rules miss
type Remote interface {
	Classify(ctx context.Context, text string) (RemoteVerdict, error)
}

// PipelineConfig tunes the comment pipeline
type PipelineConfig struct {
	EmojiThreshold int
	RemoteTimeout  time.Duration
	FailureMode    FailureMode
}

// DefaultPipelineConfig returns the stock thresholds
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EmojiThreshold: 3,
		RemoteTimeout:  5 * time.Second,
		FailureMode:    FailOpen,
	}
}

// CommentPipeline runs comments through keyword, emoji and remote stages,
// stopping at the first stage that decides to hide.
type CommentPipeline struct {
	lex     *lexicon.Lexicon
	remote  Remote
	cfg     PipelineConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCommentPipeline creates a pipeline. remote may be nil, in which case
// the remote stage is skipped.
func NewCommentPipeline(lex *lexicon.Lexicon, remote Remote, cfg PipelineConfig, logger *zap.Logger, m *metrics.Metrics) *CommentPipeline {
	if cfg.EmojiThreshold <= 0 {
		cfg.EmojiThreshold = DefaultPipelineConfig().EmojiThreshold
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultPipelineConfig().RemoteTimeout
	}
	if cfg.FailureMode == "" {
		cfg.FailureMode = FailOpen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentPipeline{lex: lex, remote: remote, cfg: cfg, logger: logger, metrics: m}
}

// HasRemote reports whether a remote classifier is configured
func (p *CommentPipeline) HasRemote() bool {
	return p.remote != nil
}

// Analyze classifies a comment. It never fails: remote problems degrade to
// the configured failure mode.
func (p *CommentPipeline) Analyze(ctx context.Context, text string) CommentVerdict {
	verdict := p.analyze(ctx, text)
	p.metrics.RecordCommentVerdict(string(verdict.Source), verdict.Hide)
	return verdict
}

func (p *CommentPipeline) analyze(ctx context.Context, text string) CommentVerdict {
	if strings.TrimSpace(text) == "" {
		return CommentVerdict{Reason: ReasonEmpty, Source: SourceDefault}
	}

	lower := strings.ToLower(text)
	if containsAny(lower, p.lex.ToxicTerms) || containsWord(lower, p.lex.ToxicWords) {
		return CommentVerdict{
			Hide:     true,
			Severity: models.CommentSeveritySevere,
			Reason:   ReasonToxicLanguage,
			Source:   SourceKeyword,
		}
	}

	emojis := CountEmojis(text, p.lex.NegativeEmojis)
	if emojis >= p.cfg.EmojiThreshold {
		return CommentVerdict{
			Hide:       true,
			Severity:   models.CommentSeveritySevere,
			Reason:     ReasonAngryEmojis,
			Source:     SourceEmoji,
			EmojiCount: emojis,
		}
	}

	safe := CommentVerdict{Reason: ReasonSafe, Source: SourceDefault, EmojiCount: emojis}
	if p.remote == nil {
		return safe
	}

	remoteCtx, cancel := context.WithTimeout(ctx, p.cfg.RemoteTimeout)
	defer cancel()

	result, err := p.remote.Classify(remoteCtx, text)
	if err != nil {
		p.metrics.RecordRemoteFailure()
		p.logger.Warn("remote classifier failed", zap.Error(err), zap.String("failure_mode", string(p.cfg.FailureMode)))
		if p.cfg.FailureMode == FailReview {
			return CommentVerdict{
				Severity:    models.CommentSeverityMild,
				Reason:      ReasonNeedsReview,
				Source:      SourceRemote,
				NeedsReview: true,
				EmojiCount:  emojis,
			}
		}
		return safe
	}

	if result.Toxic {
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = ReasonRemoteFallback
		}
		return CommentVerdict{
			Hide:       true,
			Severity:   models.CommentSeveritySevere,
			Reason:     reason,
			Source:     SourceRemote,
			EmojiCount: emojis,
		}
	}

	return safe
}

// CountEmojis counts occurrences of every emoji in set within text. Variation
// selectors are ignored on both sides, so "☠" and "☠️" count alike.
func CountEmojis(text string, set []string) int {
	text = lexicon.StripVariationSelectors(text)
	seen := make(map[string]bool, len(set))
	count := 0
	for _, emoji := range set {
		emoji = lexicon.StripVariationSelectors(emoji)
		if emoji == "" || seen[emoji] {
			continue
		}
		seen[emoji] = true
		count += strings.Count(text, emoji)
	}
	return count
}

// containsWord reports whether any of words appears in text as a whole word
func containsWord(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		tokens[tok] = true
	}
	for _, w := range words {
		if tokens[w] {
			return true
		}
	}
	return false
}
