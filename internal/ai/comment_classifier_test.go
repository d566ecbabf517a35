package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeguard/internal/classifier"
	"safeguard/internal/lexicon"
)

func lexiconForTest(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    classifier.RemoteVerdict
		wantErr bool
	}{
		{"toxic with reason", "TOXIC: bullying", classifier.RemoteVerdict{Toxic: true, Reason: "bullying"}, false},
		{"lowercase toxic", "toxic:  insults \n", classifier.RemoteVerdict{Toxic: true, Reason: "insults"}, false},
		{"toxic without reason", "TOXIC", classifier.RemoteVerdict{Toxic: true}, false},
		{"multi line reply", "TOXIC: threats\nThe comment threatens.", classifier.RemoteVerdict{Toxic: true, Reason: "threats"}, false},
		{"safe", "SAFE", classifier.RemoteVerdict{}, false},
		{"unexpected text", "I am not sure", classifier.RemoteVerdict{}, false},
		{"empty", "   ", classifier.RemoteVerdict{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifySendsComment(t *testing.T) {
	var prompt string
	c := newCommentClassifier(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "TOXIC: name calling", nil
	}, 0, 0)

	verdict, err := c.Classify(context.Background(), "you are dumb")
	require.NoError(t, err)
	assert.True(t, verdict.Toxic)
	assert.Equal(t, "name calling", verdict.Reason)
	assert.Contains(t, prompt, "you are dumb")
}

func TestClassifyGenerateError(t *testing.T) {
	c := newCommentClassifier(func(ctx context.Context, p string) (string, error) {
		return "", errors.New("quota exceeded")
	}, 0, 0)

	_, err := c.Classify(context.Background(), "hello")
	assert.Error(t, err)
}

func TestClassifyRateLimitDeadline(t *testing.T) {
	calls := 0
	c := newCommentClassifier(func(ctx context.Context, p string) (string, error) {
		calls++
		return "SAFE", nil
	}, 0.01, 1)

	_, err := c.Classify(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Classify(ctx, "second")
	assert.Error(t, err, "waiting past the deadline must fail")
	assert.Equal(t, 1, calls)
}

func TestNewCommentClassifierRequiresKey(t *testing.T) {
	_, err := NewCommentClassifier(context.Background(), Config{})
	assert.Error(t, err)
}

func TestPipelineUsesRemoteVerdict(t *testing.T) {
	c := newCommentClassifier(func(ctx context.Context, p string) (string, error) {
		return "TOXIC: harassment", nil
	}, 0, 0)

	pipeline := classifier.NewCommentPipeline(lexiconForTest(t), c, classifier.DefaultPipelineConfig(), nil, nil)
	verdict := pipeline.Analyze(context.Background(), "nobody likes your drawings")

	assert.True(t, verdict.Hide)
	assert.Equal(t, classifier.SourceRemote, verdict.Source)
	assert.Equal(t, "harassment", verdict.Reason)
}
