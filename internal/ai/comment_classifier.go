// Package ai adapts Gemini to the comment pipeline's remote classifier.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"safeguard/internal/classifier"
)

// maxReplyTokens caps the model reply; a verdict line is all we read.
const maxReplyTokens = 50

// ErrEmptyReply is returned when the model answers with no text
var ErrEmptyReply = errors.New("empty reply from model")

// Config configures the Gemini comment classifier
type Config struct {
	APIKey    string
	Model     string
	RateLimit float64 // requests per second; <= 0 disables limiting
	Burst     int
}

// generateFunc sends a prompt and returns the reply text
type generateFunc func(ctx context.Context, prompt string) (string, error)

// CommentClassifier asks a Gemini model whether a comment is toxic
type CommentClassifier struct {
	generate generateFunc
	limiter  *rate.Limiter
}

var _ classifier.Remote = (*CommentClassifier)(nil)

// NewCommentClassifier creates a classifier backed by the Gemini API
func NewCommentClassifier(ctx context.Context, cfg Config) (*CommentClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	genCfg := &genai.GenerateContentConfig{MaxOutputTokens: maxReplyTokens}
	generate := func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
		result, err := client.Models.GenerateContent(ctx, model, contents, genCfg)
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	}

	return newCommentClassifier(generate, cfg.RateLimit, cfg.Burst), nil
}

func newCommentClassifier(generate generateFunc, limit float64, burst int) *CommentClassifier {
	c := &CommentClassifier{generate: generate}
	if limit > 0 {
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return c
}

// Classify implements classifier.Remote. Waiting on the rate limiter past
// the context deadline is reported as an error.
func (c *CommentClassifier) Classify(ctx context.Context, text string) (classifier.RemoteVerdict, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return classifier.RemoteVerdict{}, fmt.Errorf("rate limited: %w", err)
		}
	}

	reply, err := c.generate(ctx, buildPrompt(text))
	if err != nil {
		return classifier.RemoteVerdict{}, fmt.Errorf("failed to classify comment: %w", err)
	}
	return parseReply(reply)
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You moderate comments shown to a child. Decide whether the comment below is toxic, abusive, hateful, sexual or otherwise inappropriate for a minor.
Answer with exactly one line:
TOXIC: <short reason>
or
SAFE

Comment:
%s`, text)
}

// parseReply reads a "TOXIC: reason" or "SAFE" answer. Anything that does
// not start with TOXIC is treated as safe.
func parseReply(reply string) (classifier.RemoteVerdict, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return classifier.RemoteVerdict{}, ErrEmptyReply
	}

	if !strings.HasPrefix(strings.ToUpper(reply), "TOXIC") {
		return classifier.RemoteVerdict{}, nil
	}

	reason := reply[len("TOXIC"):]
	if line, _, found := strings.Cut(reason, "\n"); found {
		reason = line
	}
	reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reason), ":"))
	return classifier.RemoteVerdict{Toxic: true, Reason: reason}, nil
}
