// ABOUTME: mDNS browsing for studio servers on the local network
// ABOUTME: Collects _openvox._tcp candidates and health-checks them in order
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/theepicsaxguy/OpenVox/internal/logging"
)

// serviceType is the studio server's advertised mDNS service.
const serviceType = "_openvox._tcp"

// queryTimeout bounds one browse pass.
const queryTimeout = 3 * time.Second

// Candidate is a studio server seen on the network.
type Candidate struct {
	Name string
	Host string
	Port int
}

// URL returns the candidate's HTTP base URL.
func (c Candidate) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Browse runs one mDNS query pass and returns every candidate seen.
func Browse(ctx context.Context, logger *slog.Logger) ([]Candidate, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan []Candidate, 1)

	go func() {
		var found []Candidate
		for entry := range entries {
			c, ok := candidateFromEntry(entry)
			if !ok {
				continue
			}
			logger.Debug("discovered studio server", "name", c.Name, "host", c.Host, "port", c.Port)
			found = append(found, c)
		}
		done <- found
	}()

	params := &mdns.QueryParam{
		Service: serviceType,
		Domain:  "local",
		Timeout: queryTimeout,
		Entries: entries,
	}
	err := mdns.Query(params)
	close(entries)
	found := <-done
	if err != nil {
		return found, fmt.Errorf("mdns query: %w", err)
	}
	if ctx.Err() != nil {
		return found, ctx.Err()
	}
	return found, nil
}

// Find browses and returns the base URL of the first candidate that
// passes the health check.
func Find(ctx context.Context, logger *slog.Logger, check func(ctx context.Context, baseURL string) error) (string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	candidates, err := Browse(ctx, logger)
	if len(candidates) == 0 {
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("no studio servers found on the network")
	}

	for _, c := range candidates {
		url := c.URL()
		if check == nil {
			return url, nil
		}
		if err := check(ctx, url); err != nil {
			logger.Warn("discovered server failed health check", "url", url, logging.Error(err))
			continue
		}
		logger.Info("using discovered studio server", "url", url)
		return url, nil
	}
	return "", fmt.Errorf("no discovered server passed the health check")
}

func candidateFromEntry(entry *mdns.ServiceEntry) (Candidate, bool) {
	if entry == nil || entry.Port == 0 {
		return Candidate{}, false
	}
	host := hostFromEntry(entry)
	if host == "" {
		return Candidate{}, false
	}
	return Candidate{Name: entry.Name, Host: host, Port: entry.Port}, true
}

func hostFromEntry(entry *mdns.ServiceEntry) string {
	switch {
	case entry.AddrV4 != nil:
		return entry.AddrV4.String()
	case entry.AddrV6 != nil:
		return fmt.Sprintf("[%s]", entry.AddrV6.String())
	case entry.Addr != nil:
		if ip4 := entry.Addr.To4(); ip4 != nil {
			return ip4.String()
		}
		return fmt.Sprintf("[%s]", entry.Addr.String())
	}
	return ""
}
