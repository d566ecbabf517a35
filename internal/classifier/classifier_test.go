package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeguard/internal/lexicon"
	"safeguard/internal/models"
)

func defaultLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func TestCategorize(t *testing.T) {
	c := New(defaultLexicon(t))

	tests := []struct {
		name        string
		title       string
		description string
		transcript  string
		want        []string
	}{
		{
			name:  "educational title",
			title: "Learn Python Tutorial",
			want:  []string{"educational"},
		},
		{
			name:        "keywords across fields keep taxonomy order",
			title:       "Gameplay highlights",
			description: "Best recipe ever",
			want:        []string{"sports", "cooking", "gaming"},
		},
		{
			name:       "case folded transcript",
			transcript: "BREAKING NEWS tonight",
			want:       []string{"news"},
		},
		{
			name:  "no match falls back",
			title: "qwerty zxcv",
			want:  []string{"general"},
		},
		{
			name: "everything empty falls back",
			want: []string{"general"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Categorize(tt.title, tt.description, tt.transcript)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorizeNeverEmpty(t *testing.T) {
	c := New(defaultLexicon(t))
	inputs := []string{"", " ", "🙂", "1234", "\n\t", "zzz"}
	for _, in := range inputs {
		assert.NotEmpty(t, c.Categorize(in, in, in), "input %q", in)
	}
}

func TestCategorizeUsesConfiguredFallback(t *testing.T) {
	lex, err := lexicon.Parse([]byte("fallback: other\n"), defaultLexicon(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"other"}, New(lex).Categorize("qqq", "", ""))
}

func TestScoreContent(t *testing.T) {
	c := New(defaultLexicon(t))

	safe := c.ScoreContent("Learn Python Tutorial", "", "")
	assert.Equal(t, models.RatingSafe, safe.Rating)
	assert.Empty(t, safe.Flags)
	assert.False(t, safe.Flagged())

	flagged := c.ScoreContent("Weapon review", "", "contains graphic scenes")
	assert.Equal(t, models.RatingWarning, flagged.Rating)
	assert.Equal(t, []models.SafetyFlag{
		{Issue: "weapon", Severity: models.SeverityHigh},
		{Issue: "graphic", Severity: models.SeverityHigh},
	}, flagged.Flags)
}

func TestScoreContentBlockedKeywords(t *testing.T) {
	lex, err := lexicon.Parse([]byte("blocked_keywords: [gore]\n"), defaultLexicon(t))
	require.NoError(t, err)
	c := New(lex)

	verdict := c.ScoreContent("Violence and gore compilation", "", "")
	assert.Equal(t, models.RatingBlocked, verdict.Rating)
	assert.Contains(t, verdict.Flags, models.SafetyFlag{Issue: "gore", Severity: models.SeverityCritical})
	assert.Contains(t, verdict.Flags, models.SafetyFlag{Issue: "violence", Severity: models.SeverityHigh})
}

type fakeRemote struct {
	verdict RemoteVerdict
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeRemote) Classify(ctx context.Context, text string) (RemoteVerdict, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return RemoteVerdict{}, ctx.Err()
		}
	}
	return f.verdict, f.err
}

func TestCommentPipelineStages(t *testing.T) {
	lex := defaultLexicon(t)

	tests := []struct {
		name       string
		text       string
		remote     *fakeRemote
		wantHide   bool
		wantSev    int
		wantReason string
		wantSource Source
		wantCalls  int
	}{
		{
			name:       "toxic keyword",
			text:       "I hate you, die",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonToxicLanguage,
			wantSource: SourceKeyword,
		},
		{
			name:       "keyword wins even when remote says safe",
			text:       "you are STUPID",
			remote:     &fakeRemote{},
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonToxicLanguage,
			wantSource: SourceKeyword,
			wantCalls:  0,
		},
		{
			name:       "angry emojis",
			text:       "😡😡😡",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonAngryEmojis,
			wantSource: SourceEmoji,
		},
		{
			name:       "whole word toxic term",
			text:       "just die",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonToxicLanguage,
			wantSource: SourceKeyword,
		},
		{
			name:       "whole word toxic term with punctuation",
			text:       "Go to HELL!",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonToxicLanguage,
			wantSource: SourceKeyword,
		},
		{
			name:       "nepali whole word",
			text:       "timi pagal ho",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonToxicLanguage,
			wantSource: SourceKeyword,
		},
		{
			name:       "short terms inside ordinary words",
			text:       "Hello class, studied with my father today",
			wantReason: ReasonSafe,
			wantSource: SourceDefault,
		},
		{
			name:       "everyday nepali words are not toxic",
			text:       "kasto ramro video",
			wantReason: ReasonSafe,
			wantSource: SourceDefault,
		},
		{
			name:       "emojis without variation selector",
			text:       "☠☠☠",
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonAngryEmojis,
			wantSource: SourceEmoji,
		},
		{
			name:       "two emojis are not enough",
			text:       "😡 ok 🤬",
			wantReason: ReasonSafe,
			wantSource: SourceDefault,
		},
		{
			name:       "safe without remote",
			text:       "Nice video, thanks!",
			wantReason: ReasonSafe,
			wantSource: SourceDefault,
		},
		{
			name:       "empty comment",
			text:       "   ",
			wantReason: ReasonEmpty,
			wantSource: SourceDefault,
		},
		{
			name:       "remote toxic",
			text:       "you should go away forever",
			remote:     &fakeRemote{verdict: RemoteVerdict{Toxic: true, Reason: "bullying"}},
			wantHide:   true,
			wantSev:    2,
			wantReason: "bullying",
			wantSource: SourceRemote,
			wantCalls:  1,
		},
		{
			name:       "remote toxic without reason",
			text:       "you should go away forever",
			remote:     &fakeRemote{verdict: RemoteVerdict{Toxic: true}},
			wantHide:   true,
			wantSev:    2,
			wantReason: ReasonRemoteFallback,
			wantSource: SourceRemote,
			wantCalls:  1,
		},
		{
			name:       "remote safe",
			text:       "Great explanation",
			remote:     &fakeRemote{},
			wantReason: ReasonSafe,
			wantSource: SourceDefault,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var remote Remote
			if tt.remote != nil {
				remote = tt.remote
			}
			p := NewCommentPipeline(lex, remote, DefaultPipelineConfig(), nil, nil)

			got := p.Analyze(context.Background(), tt.text)
			assert.Equal(t, tt.wantHide, got.Hide)
			assert.Equal(t, tt.wantSev, got.Severity)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.False(t, got.NeedsReview)
			if tt.remote != nil {
				assert.Equal(t, tt.wantCalls, tt.remote.calls)
			}
		})
	}
}

func TestCommentPipelineRemoteFailureModes(t *testing.T) {
	lex := defaultLexicon(t)

	failures := map[string]*fakeRemote{
		"error":   {err: errors.New("service unavailable")},
		"timeout": {delay: time.Second},
	}

	for name, remote := range failures {
		t.Run(name+"/open", func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			cfg.RemoteTimeout = 20 * time.Millisecond
			p := NewCommentPipeline(lex, remote, cfg, nil, nil)

			got := p.Analyze(context.Background(), "borderline remark")
			assert.False(t, got.Hide)
			assert.Equal(t, 0, got.Severity)
			assert.Equal(t, ReasonSafe, got.Reason)
			assert.False(t, got.NeedsReview)
		})

		t.Run(name+"/review", func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			cfg.RemoteTimeout = 20 * time.Millisecond
			cfg.FailureMode = FailReview
			p := NewCommentPipeline(lex, remote, cfg, nil, nil)

			got := p.Analyze(context.Background(), "borderline remark")
			assert.False(t, got.Hide)
			assert.Equal(t, 1, got.Severity)
			assert.Equal(t, ReasonNeedsReview, got.Reason)
			assert.True(t, got.NeedsReview)
			assert.Equal(t, SourceRemote, got.Source)
		})
	}
}

func TestCommentPipelineReviewModeWithoutRemote(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.FailureMode = FailReview
	p := NewCommentPipeline(defaultLexicon(t), nil, cfg, nil, nil)

	got := p.Analyze(context.Background(), "Nice video, thanks!")
	assert.False(t, got.Hide)
	assert.False(t, got.NeedsReview)
	assert.Equal(t, ReasonSafe, got.Reason)
}

func TestParseFailureMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FailureMode
		wantErr bool
	}{
		{"", FailOpen, false},
		{"open", FailOpen, false},
		{" Review ", FailReview, false},
		{"closed", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFailureMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountEmojis(t *testing.T) {
	set := defaultLexicon(t).NegativeEmojis
	assert.Equal(t, 0, CountEmojis("hello", set))
	assert.Equal(t, 3, CountEmojis("🔥🔥 wow 💀", set))
	assert.Equal(t, 1, CountEmojis("☠️", set))
	assert.Equal(t, 3, CountEmojis("☠☠☠", set))
	assert.Equal(t, 2, CountEmojis("☠️☠", set))
	assert.Equal(t, 2, CountEmojis("☠️☠", []string{"☠", "☠️"}), "selector variants in the set count once")
}
