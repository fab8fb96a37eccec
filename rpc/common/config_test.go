package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToConnectionRequest(t *testing.T) {
	cases := []struct {
		endpoint string
		host     string
		port     uint32
	}{
		{"/tmp/dmux.sock", "/tmp/dmux.sock", 0},
		{"unix:///var/run/engine.sock", "/var/run/engine.sock", 0},
		{"localhost:6379", "localhost", 6379},
		{"tcp://10.0.0.1:7000", "10.0.0.1", 7000},
	}

	for _, tc := range cases {
		t.Run(tc.endpoint, func(t *testing.T) {
			config := DefaultClientConfig()
			config.Endpoint = tc.endpoint
			config.ClientName = "tester"
			config.DatabaseID = 3
			config.ReadFromReplica = true

			req := config.ToConnectionRequest()
			if len(req.Addresses) != 1 {
				t.Fatalf("Expected 1 address, got %d", len(req.Addresses))
			}
			if req.Addresses[0].Host != tc.host || req.Addresses[0].Port != tc.port {
				t.Errorf("Expected %s:%d, got %s:%d", tc.host, tc.port, req.Addresses[0].Host, req.Addresses[0].Port)
			}
			if req.ClientName != "tester" || req.DatabaseID != 3 {
				t.Errorf("Connection settings not carried over: %+v", req)
			}
			if req.ReadFrom != ReadFromPreferReplica {
				t.Errorf("Expected prefer replica, got %d", req.ReadFrom)
			}
			if req.ResponseTimeout != 5000 {
				t.Errorf("Expected response timeout 5000ms, got %d", req.ResponseTimeout)
			}
		})
	}
}

func TestClientConfigYAML(t *testing.T) {
	config := DefaultClientConfig()
	config.Endpoint = "localhost:7000"
	config.Transport = TransportTCP
	config.ThreadPoolSize = 2

	out, err := config.YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	if !strings.Contains(out, "endpoint: localhost:7000") {
		t.Errorf("Expected endpoint in yaml, got:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	loaded, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	if loaded.Endpoint != config.Endpoint || loaded.Transport != TransportTCP || loaded.ThreadPoolSize != 2 {
		t.Errorf("Loaded config differs: %+v", loaded)
	}
	if loaded.SocketConf.MaxFrameSize != DefaultMaxFrameSize {
		t.Errorf("Expected max frame size %d, got %d", DefaultMaxFrameSize, loaded.SocketConf.MaxFrameSize)
	}
}

func TestLoadClientConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("endpoint: /run/engine.sock\ntimeout_sec: 1\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	loaded, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	if loaded.Endpoint != "/run/engine.sock" || loaded.TimeoutSecond != 1 {
		t.Errorf("Unexpected config: %+v", loaded)
	}
	// untouched fields keep their defaults
	if loaded.Transport != TransportAuto || !loaded.TCPConf.TCPNoDelay {
		t.Errorf("Defaults lost: %+v", loaded)
	}

	if _, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestClientConfigStringMasksPassword(t *testing.T) {
	config := DefaultClientConfig()
	config.Password = "hunter2"
	if strings.Contains(config.String(), "hunter2") {
		t.Error("Password printed in clear text")
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("Expected %q to parse, got %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestRequestTypeJSON(t *testing.T) {
	for rt := ReqTUnspecified; rt <= ReqTInfo; rt++ {
		data, err := rt.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%s) failed: %v", rt, err)
		}
		var got RequestType
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s) failed: %v", data, err)
		}
		if got != rt {
			t.Errorf("Expected %s, got %s", rt, got)
		}
	}

	var rt RequestType
	if err := rt.UnmarshalJSON([]byte(`"nope"`)); err == nil {
		t.Error("Expected error for unknown request type")
	}
}

func TestParseRequestType(t *testing.T) {
	cases := map[string]RequestType{
		"GET":    ReqTGet,
		"set":    ReqTSet,
		"Ping":   ReqTPing,
		"echo":   ReqTEcho,
		"sleep":  ReqTCustomCommand,
		"custom": ReqTCustomCommand,
	}
	for name, expected := range cases {
		if got := ParseRequestType(name); got != expected {
			t.Errorf("ParseRequestType(%q) = %s, expected %s", name, got, expected)
		}
	}
}
