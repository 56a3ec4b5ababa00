package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", Version)
	}
	if AppName != "Tile Pairs Server" {
		t.Errorf("Expected app name Tile Pairs Server, got %s", AppName)
	}
}

// parse runs the command with args and returns the options the chosen mode received
func parse(t *testing.T, args ...string) (options, string) {
	t.Helper()
	var got options
	var mode string
	serve := func(ctx context.Context, opts options) error {
		got, mode = opts, "serve"
		return nil
	}
	stdio := func(ctx context.Context, opts options) error {
		got, mode = opts, "mcp"
		return nil
	}
	if err := newCommand(serve, stdio).Run(context.Background(), append([]string{"tilepairs"}, args...)); err != nil {
		t.Fatalf("Run(%v) failed: %v", args, err)
	}
	return got, mode
}

func TestFlagDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "HOST", "CONFIG_DIR", "LOG_LEVEL", "NGROK_ENABLED", "SESSION_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	opts, mode := parse(t)
	if mode != "serve" {
		t.Errorf("Expected serve as default mode, got %q", mode)
	}
	if opts.port != 8080 {
		t.Errorf("Expected default port 8080, got %d", opts.port)
	}
	if opts.host != "localhost" {
		t.Errorf("Expected default host localhost, got %s", opts.host)
	}
	if opts.configDir != "configs" {
		t.Errorf("Expected default config dir configs, got %s", opts.configDir)
	}
	if opts.sessionTTL != 24*time.Hour {
		t.Errorf("Expected default session ttl 24h, got %v", opts.sessionTTL)
	}
	if opts.ngrokEnabled {
		t.Error("Expected ngrok disabled by default")
	}
}

func TestCommandModes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantMode string
		check    func(t *testing.T, opts options)
	}{
		{
			name:     "serve with flags",
			args:     []string{"serve", "--port", "9090", "--host", "0.0.0.0", "--debug"},
			wantMode: "serve",
			check: func(t *testing.T, opts options) {
				if opts.addr() != "0.0.0.0:9090" {
					t.Errorf("Expected 0.0.0.0:9090, got %s", opts.addr())
				}
				if !opts.debug {
					t.Error("Expected debug enabled")
				}
			},
		},
		{
			name:     "legacy server alias",
			args:     []string{"server", "--config-dir", "/tmp/boards"},
			wantMode: "serve",
			check: func(t *testing.T, opts options) {
				if opts.configDir != "/tmp/boards" {
					t.Errorf("Expected /tmp/boards, got %s", opts.configDir)
				}
			},
		},
		{
			name:     "mcp stdio",
			args:     []string{"mcp", "--log-level", "warn"},
			wantMode: "mcp",
			check: func(t *testing.T, opts options) {
				if opts.logLevel != "warn" {
					t.Errorf("Expected warn, got %s", opts.logLevel)
				}
			},
		},
		{
			name:     "stdio-mcp alias",
			args:     []string{"stdio-mcp"},
			wantMode: "mcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, mode := parse(t, tt.args...)
			if mode != tt.wantMode {
				t.Errorf("Expected mode %s, got %s", tt.wantMode, mode)
			}
			if tt.check != nil {
				tt.check(t, opts)
			}
		})
	}
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("NGROK_ENABLED", "true")
	t.Setenv("NGROK_AUTH_TOKEN", "secret")

	opts, _ := parse(t)
	if opts.port != 7070 {
		t.Errorf("Expected port from env 7070, got %d", opts.port)
	}
	if !opts.ngrokEnabled || opts.ngrokAuth != "secret" {
		t.Errorf("Expected ngrok settings from env, got enabled=%v auth=%q", opts.ngrokEnabled, opts.ngrokAuth)
	}
}

func TestNewApplication(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	app, err := newApplication(options{configDir: "configs"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to build application: %v", err)
	}
	defer app.sessions.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.start(ctx, time.Hour)

	info, err := app.service.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if info.Board == nil || info.Board.Stage != 1 {
		t.Errorf("Expected a stage 1 board, got %+v", info.Board)
	}

	req := httptest.NewRequest("GET", "/api/sessions/"+info.ID, nil)
	w := httptest.NewRecorder()
	app.api.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for created session, got %d", w.Code)
	}
}

func TestNewApplication_InvalidConfigDir(t *testing.T) {
	if _, err := newApplication(options{configDir: "/non/existent/path"}, zap.NewNop()); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:0"))

	t.Run("rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("initialize", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body)))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Tile Pairs") {
			t.Errorf("Expected server info in response, got %s", w.Body.String())
		}
	})
}

func TestAPIAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if !apiAvailable(server.URL) {
		t.Error("Expected running server to be detected")
	}
	if apiAvailable("http://127.0.0.1:1") {
		t.Error("Expected closed port to be reported unavailable")
	}
}
