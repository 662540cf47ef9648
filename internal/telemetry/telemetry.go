/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a small, opt-in event sender for anonymous usage
// metrics (which gestures and commands get used) and optional crash uploads.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "gomanga/internal/log"
	"gomanga/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt-in and disabled by default.
//
// Environment variables (read by FromEnv):
//   - GMW_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
//   - GMW_TELEMETRY_URL: URL to POST JSON events to
//   - GMW_CRASH_UPLOAD_URL: URL to POST crash reports to
//   - GMW_TELEMETRY_TIMEOUT_MS: request timeout, default 1500ms
//   - GMW_TELEMETRY_DEBUG: if set, logs send attempts
//
// Without URLs events are dropped, even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("GMW_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GMW_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GMW_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("GMW_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("GMW_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is an async sender; it drops events silently on errors and never
// blocks the caller. The queue is bounded.
type Client struct {
	cfg      Config
	log      *slog.Logger
	cli      *http.Client
	q        chan map[string]any
	pending  atomic.Int64
	once     sync.Once
	closed   chan struct{}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package-level client, creating it from env on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault installs c as the package-level client and closes the previous one.
func SetDefault(c *Client) {
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

// New constructs a client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether the default client is enabled.
func Enabled() bool { return Default().Enabled() }

// Event posts a small JSON event if enabled. Safe to call from anywhere.
// props must not carry personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Add(-1) // queue full
	}
}

// Command records that an editing command was recognized. Only the kind is sent.
func (c *Client) Command(kind string) {
	c.Event("command", map[string]any{"kind": kind})
}

// Event using the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// Command using the default client.
func Command(kind string) { Default().Command(kind) }

// Flush waits until queued events are sent, ctx ends, or a short deadline passes.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(c.cfg.Timeout + 500*time.Millisecond)
	for c.pending.Load() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Close stops the background goroutine.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			// release anything still queued so Flush returns
			for {
				select {
				case <-c.q:
					c.pending.Add(-1)
				default:
					return
				}
			}
		case item := <-c.q:
			c.send(item)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) send(item map[string]any) {
	buf, _ := json.Marshal(item)
	c.post(c.cfg.EventsURL, "application/json", buf, "telemetry event")
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug(what+" failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug(what+" sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts an already-serialized crash report to the crash URL if opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	b := append([]byte(nil), report...)
	c.pending.Add(1)
	go func() {
		defer c.pending.Add(-1)
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b, "crash upload")
	}()
}

// UploadCrash using the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
