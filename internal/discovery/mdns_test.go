// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup, TXT records and browse result conversion
package discovery

import (
	"net"
	"reflect"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Engine", Port: 8928})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.Servers() == nil {
		t.Error("expected servers channel")
	}
	mgr.Stop()
}

func TestTXTRecords(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Engine", Port: 8928, Version: "1.2.3"})
	expected := []string{"path=/digimuse", "version=1.2.3"}
	if got := mgr.txtRecords(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestEntryToServer(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Attic._digimuse._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       8928,
		InfoFields: []string{"path=/control", "version=0.3.0"},
	}

	server := entryToServer(entry)
	if server.Host != "192.168.1.20" || server.Port != 8928 || server.Path != "/control" {
		t.Errorf("unexpected server %+v", server)
	}
	if server.Addr() != "192.168.1.20:8928" {
		t.Errorf("expected 192.168.1.20:8928, got %s", server.Addr())
	}
}

func TestEntryToServerDefaultsPath(t *testing.T) {
	server := entryToServer(&mdns.ServiceEntry{Name: "x", AddrV4: net.IPv4(10, 0, 0, 1), Port: 1})
	if server.Path != ControlPath {
		t.Errorf("expected default path %s, got %s", ControlPath, server.Path)
	}
}
