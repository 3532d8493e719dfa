// ABOUTME: Tests for mDNS candidate handling
// ABOUTME: Tests entry filtering and base URL construction
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestCandidateFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:   "studio._openvox._tcp.local.",
		AddrV4: net.ParseIP("192.168.1.20"),
		Port:   8787,
	}
	c, ok := candidateFromEntry(entry)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Host != "192.168.1.20" || c.Port != 8787 {
		t.Errorf("got %s:%d, want 192.168.1.20:8787", c.Host, c.Port)
	}
	if got := c.URL(); got != "http://192.168.1.20:8787" {
		t.Errorf("URL = %q", got)
	}
}

func TestCandidateFromEntryV6(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:   "studio._openvox._tcp.local.",
		AddrV6: net.ParseIP("fe80::1"),
		Port:   8787,
	}
	c, ok := candidateFromEntry(entry)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if got := c.URL(); got != "http://[fe80::1]:8787" {
		t.Errorf("URL = %q", got)
	}
}

func TestCandidateFromEntryRejectsUnusable(t *testing.T) {
	if _, ok := candidateFromEntry(nil); ok {
		t.Error("nil entry should be rejected")
	}
	if _, ok := candidateFromEntry(&mdns.ServiceEntry{Port: 8787}); ok {
		t.Error("entry without an address should be rejected")
	}
	if _, ok := candidateFromEntry(&mdns.ServiceEntry{AddrV4: net.ParseIP("10.0.0.5")}); ok {
		t.Error("entry without a port should be rejected")
	}
}
