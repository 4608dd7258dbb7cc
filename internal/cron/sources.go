package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ContentFetcher produces one piece of filler content per job run
type ContentFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// JokeFetcher pulls a joke of the day from an external API
type JokeFetcher struct {
	url    string
	client *http.Client
}

// NewJokeFetcher creates a joke fetcher for the given endpoint
func NewJokeFetcher(url string, timeout time.Duration) *JokeFetcher {
	return &JokeFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns one joke
func (f *JokeFetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("joke fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("joke API returned %d", resp.StatusCode)
	}

	var body struct {
		Joke string `json:"joke"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode joke: %w", err)
	}
	if body.Joke == "" {
		return "", fmt.Errorf("joke API returned empty joke")
	}
	return body.Joke, nil
}

// ChannelLister resolves the target channel list for a job run. A live
// endpoint is tried first; on any failure the configured fallback list
// is used.
type ChannelLister struct {
	url      string
	fallback []string
	client   *http.Client
}

// NewChannelLister creates a channel lister. url may be empty, in which
// case only the fallback list is used.
func NewChannelLister(url, fallbackCSV string, timeout time.Duration) *ChannelLister {
	return &ChannelLister{
		url:      url,
		fallback: SplitChannels(fallbackCSV),
		client:   &http.Client{Timeout: timeout},
	}
}

// List returns the channels to post into
func (l *ChannelLister) List(ctx context.Context) []string {
	if l.url == "" {
		return l.fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return l.fallback
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return l.fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return l.fallback
	}

	var body struct {
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return l.fallback
	}
	if len(body.Channels) == 0 {
		return l.fallback
	}
	return body.Channels
}

// SplitChannels parses a comma-separated channel list, dropping blanks
func SplitChannels(csv string) []string {
	channels := []string{}
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			channels = append(channels, trimmed)
		}
	}
	return channels
}
