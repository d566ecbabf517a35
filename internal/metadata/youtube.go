package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var (
	isoDuration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)
	videoID     = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)
)

// YouTubeConfig selects how the extractor authenticates
type YouTubeConfig struct {
	APIKey string
	// UseADC authenticates with Application Default Credentials instead of an API key
	UseADC bool
}

// YouTube extracts metadata through the YouTube Data API v3
type YouTube struct {
	service *youtube.Service
}

var _ Extractor = (*YouTube)(nil)

// NewYouTube creates a YouTube extractor. Extra client options are appended
// after the credentials.
func NewYouTube(ctx context.Context, cfg YouTubeConfig, opts ...option.ClientOption) (*YouTube, error) {
	var clientOpts []option.ClientOption
	switch {
	case cfg.UseADC:
		httpClient, err := google.DefaultClient(ctx, youtube.YoutubeReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to load default credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(httpClient))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, errors.New("youtube API key or default credentials required")
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &YouTube{service: service}, nil
}

// Supports reports whether rawURL points at a single YouTube video
func (y *YouTube) Supports(rawURL string) bool {
	_, ok := ParseVideoID(rawURL)
	return ok
}

// Extract fetches snippet and duration for the video behind rawURL
func (y *YouTube) Extract(ctx context.Context, rawURL string) (*Metadata, error) {
	id, ok := ParseVideoID(rawURL)
	if !ok {
		return nil, ErrUnsupported
	}

	resp, err := y.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", id, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}

	item := resp.Items[0]
	md := &Metadata{}
	if item.Snippet != nil {
		md.Title = item.Snippet.Title
		md.Uploader = item.Snippet.ChannelTitle
		md.Description = item.Snippet.Description
	}
	if item.ContentDetails != nil {
		md.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}
	return md, nil
}

// ParseVideoID extracts the video ID from watch, short-link, shorts and embed URLs
func ParseVideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.TrimPrefix(u.Path, "/live/")
		}
		id = strings.Trim(id, "/")
	}

	if !videoID.MatchString(id) {
		return "", false
	}
	return id, true
}

// parseDurationSeconds converts an ISO 8601 duration such as PT1H2M3S
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := isoDuration.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var total int
	for i, unit := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
