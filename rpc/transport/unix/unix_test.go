package unix

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
)

func TestSocketPath(t *testing.T) {
	if got := SocketPath("unix:///tmp/a.sock"); got != "/tmp/a.sock" {
		t.Errorf("Expected /tmp/a.sock, got %s", got)
	}
	if got := SocketPath("/tmp/b.sock"); got != "/tmp/b.sock" {
		t.Errorf("Expected /tmp/b.sock, got %s", got)
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("Failed to create stale file: %v", err)
	}

	connector := &serverConnector{}
	listener, err := connector.Listen(common.ServerConfig{Endpoint: "unix://" + path})
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := NewClientConnector()
	conn, err := client.Connect(ctx, path)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := client.UpgradeConnection(conn, common.DefaultClientConfig()); err != nil {
		t.Errorf("UpgradeConnection failed: %v", err)
	}
}
