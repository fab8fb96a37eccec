package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
)

func TestAddress(t *testing.T) {
	cases := map[string]string{
		"localhost:6379":       "localhost:6379",
		"tcp://127.0.0.1:7000": "127.0.0.1:7000",
	}
	for endpoint, expected := range cases {
		if got := Address(endpoint); got != expected {
			t.Errorf("Address(%q) = %q, expected %q", endpoint, got, expected)
		}
	}
}

func TestConnectAndUpgrade(t *testing.T) {
	connector := &serverConnector{}
	listener, err := connector.Listen(common.ServerConfig{Endpoint: "tcp://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := NewClientConnector()
	if client.GetName() != "tcp" {
		t.Errorf("Expected name tcp, got %s", client.GetName())
	}
	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := client.UpgradeConnection(conn, common.DefaultClientConfig()); err != nil {
		t.Errorf("UpgradeConnection failed: %v", err)
	}

	select {
	case serverConn := <-accepted:
		defer serverConn.Close()
		config := common.ServerConfig{TCPConf: common.TCPConf{TCPNoDelay: true, TCPLingerSec: 0}}
		if err := connector.UpgradeConnection(serverConn, config); err != nil {
			t.Errorf("Server UpgradeConnection failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connection not accepted")
	}
}

func TestUpgradeIgnoresOtherConnections(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	if err := applyOptions(a, common.SocketConf{WriteBufferSize: 1024}, common.TCPConf{TCPNoDelay: true}); err != nil {
		t.Errorf("Expected pipe to be ignored, got %v", err)
	}
}
