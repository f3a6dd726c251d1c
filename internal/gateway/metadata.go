// Package gateway contains clients for the external collaborators the core
// depends on: video metadata lookup, blob storage, the suggestion LLM and the
// thumbnail image model. Every client converts transport failures into plain
// errors at this boundary; callers decide whether the call was advisory.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doneby/internal/config"
	"doneby/internal/observability"
)

// VideoMetadata is the subset of oEmbed fields the catalog caches.
type VideoMetadata struct {
	Title            string
	ChannelName      string
	ChannelID        string
	ChannelThumbnail string
}

// MetadataLookup resolves public metadata for a video URL.
type MetadataLookup interface {
	Fetch(ctx context.Context, videoURL string) (*VideoMetadata, error)
}

// OEmbedClient fetches video metadata from an oEmbed-compatible endpoint.
type OEmbedClient struct {
	endpoint string
	http     *http.Client
}

// NewOEmbedClient builds a metadata client from application config.
func NewOEmbedClient(cfg *config.Config) *OEmbedClient {
	timeout := time.Duration(cfg.OEmbedTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OEmbedClient{
		endpoint: cfg.OEmbedURL,
		http:     &http.Client{Timeout: timeout},
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Fetch looks up the video's title and channel information.
func (c *OEmbedClient) Fetch(ctx context.Context, videoURL string) (md *VideoMetadata, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternalCall("metadata", start, err) }()

	reqURL := fmt.Sprintf("%s?url=%s&format=json", c.endpoint, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata lookup returned status %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("metadata lookup returned invalid JSON: %w", err)
	}

	return &VideoMetadata{
		Title:            body.Title,
		ChannelName:      body.AuthorName,
		ChannelID:        channelIDFromAuthorURL(body.AuthorURL),
		ChannelThumbnail: body.ThumbnailURL,
	}, nil
}

// channelIDFromAuthorURL extracts the channel identifier from an author URL
// such as https://www.youtube.com/channel/UCxxxx or /@handle.
func channelIDFromAuthorURL(authorURL string) string {
	parsed, err := url.Parse(authorURL)
	if err != nil || parsed.Path == "" {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	return parts[len(parts)-1]
}
