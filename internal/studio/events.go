// ABOUTME: WebSocket feed of chunk and episode status changes
// ABOUTME: Drives chunk-list reloads while the server is still generating
package studio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event kinds pushed by the server.
const (
	EventChunk   = "chunk"
	EventEpisode = "episode"
)

// Event is one status-change notification. Chunk events carry the index of
// the chunk that changed; the client refetches the whole chunk list rather
// than patching it.
type Event struct {
	Type       string `json:"type"`
	EpisodeID  int64  `json:"episode_id"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
	Status     string `json:"status"`
}

// EventFeed is a live connection to the server's event stream.
type EventFeed struct {
	conn   *websocket.Conn
	events chan Event
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

const (
	feedPingInterval = 30 * time.Second
	feedReadTimeout  = 90 * time.Second
)

// DialEvents connects to the server's event stream. The feed stays open
// until Close or a read error; the caller is expected to redial with
// backoff when the Events channel closes.
func (c *Client) DialEvents(ctx context.Context) (*EventFeed, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/studio/events"

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("dial events: %w", err)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	feed := &EventFeed{
		conn:   conn,
		events: make(chan Event, 16),
		ctx:    feedCtx,
		cancel: cancel,
	}
	go feed.readLoop()
	go feed.pingLoop()
	return feed, nil
}

// Events returns the event channel. It closes when the connection drops;
// Err reports why.
func (f *EventFeed) Events() <-chan Event { return f.events }

// Err returns the error that ended the feed, nil after a clean Close.
func (f *EventFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close shuts the feed down.
func (f *EventFeed) Close() error {
	f.closeOnce.Do(func() {
		f.cancel()
		// Best-effort close frame so the server drops us promptly.
		_ = f.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		f.conn.Close()
	})
	return nil
}

func (f *EventFeed) readLoop() {
	defer close(f.events)
	defer f.Close()

	f.conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})

	for {
		var ev Event
		if err := f.conn.ReadJSON(&ev); err != nil {
			select {
			case <-f.ctx.Done():
				// Closed on purpose; not an error.
			default:
				f.mu.Lock()
				f.err = err
				f.mu.Unlock()
			}
			return
		}
		f.conn.SetReadDeadline(time.Now().Add(feedReadTimeout))

		select {
		case f.events <- ev:
		case <-f.ctx.Done():
			return
		}
	}
}

func (f *EventFeed) pingLoop() {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			err := f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			if err != nil {
				return
			}
		}
	}
}
