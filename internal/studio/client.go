// ABOUTME: HTTP client for the studio backend API
// ABOUTME: Fetches the library, episode chunk lists, and persists positions
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theepicsaxguy/OpenVox/internal/version"
)

var userAgent = version.Product + "/" + version.Version

// ErrNotFound is returned for resources the server does not know.
var ErrNotFound = errors.New("not found")

// Config configures a studio API client.
type Config struct {
	// BaseURL is the server root, e.g. "http://vox.local:5000".
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// ClientID identifies this player instance in playback saves.
	ClientID string

	// Timeout bounds each request. Defaults to 10 seconds.
	Timeout time.Duration
}

// Client talks to the studio backend.
type Client struct {
	baseURL  string
	token    string
	clientID string
	client   *http.Client
}

// New creates a studio client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("studio: server URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("studio: parse server URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  base,
		token:    strings.TrimSpace(cfg.Token),
		clientID: cfg.ClientID,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks that the server is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// Library fetches the folder tree and ungrouped episodes.
func (c *Client) Library(ctx context.Context) (*LibraryTree, error) {
	var tree LibraryTree
	if err := c.get(ctx, "/studio/library", &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// Episode fetches one episode with its chunk list and saved position.
func (c *Client) Episode(ctx context.Context, id int64) (*Episode, error) {
	var ep Episode
	if err := c.get(ctx, fmt.Sprintf("/studio/episodes/%d", id), &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// SavePlayback persists a listening position. The server keeps one row per
// episode; last write wins.
func (c *Client) SavePlayback(ctx context.Context, episodeID int64, state ResumeState) error {
	payload := struct {
		ResumeState
		ClientID string `json:"client_id,omitempty"`
	}{ResumeState: state, ClientID: c.clientID}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/studio/episodes/%d/playback", episodeID), payload, nil)
}

// Settings fetches the server's key/value settings.
func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	var settings map[string]string
	if err := c.get(ctx, "/studio/settings", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSetting updates one server setting.
func (c *Client) SaveSetting(ctx context.Context, key, value string) error {
	payload := map[string]string{key: value}
	return c.send(ctx, http.MethodPut, "/studio/settings", payload, nil)
}

// CreateSource uploads a text document the server can generate episodes
// from.
func (c *Client) CreateSource(ctx context.Context, title, text string) (*Source, error) {
	payload := map[string]string{"title": title, "raw_text": text}
	var src Source
	if err := c.send(ctx, http.MethodPost, "/studio/sources", payload, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// CreateEpisode asks the server to chunk and synthesize an episode.
func (c *Client) CreateEpisode(ctx context.Context, req CreateEpisodeRequest) (*Episode, error) {
	var ep Episode
	if err := c.send(ctx, http.MethodPost, "/studio/episodes", req, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// ChunkAudioURL returns the stable URL for a chunk's audio file.
func (c *Client) ChunkAudioURL(episodeID int64, index int) string {
	return fmt.Sprintf("%s/studio/episodes/%d/chunks/%d/audio", c.baseURL, episodeID, index)
}

// OpenAudio starts an audio download. The caller owns the returned body and
// must close it.
func (c *Client) OpenAudio(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build audio request: %w", err)
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("audio %s: %w", rawURL, ErrNotFound)
		}
		return nil, fmt.Errorf("audio fetch returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	c.setHeaders(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
