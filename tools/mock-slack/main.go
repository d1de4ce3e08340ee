// Package main implements a mock Slack API server for local development.
// It accepts chat.postMessage calls and incoming-webhook posts, logs the
// message text, and keeps every accepted message for inspection at
// GET /messages, so the notifier can run end to end without a workspace.
//
// Point the notifier at it with SLACK_API_URL=http://localhost:8090/api/.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type message struct {
	Channel string    `json:"channel"`
	Text    string    `json:"text"`
	Source  string    `json:"source"` // api or webhook
	Time    time.Time `json:"time"`
}

// mockSlack holds the accepted messages.
type mockSlack struct {
	token          string
	missingChannel map[string]struct{}
	log            *slog.Logger

	mu       sync.Mutex
	messages []message
	seq      int
}

func newMockSlack(token string, missingChannels []string, log *slog.Logger) *mockSlack {
	m := &mockSlack{
		token:          token,
		missingChannel: make(map[string]struct{}, len(missingChannels)),
		log:            log,
	}
	for _, ch := range missingChannels {
		if ch = strings.TrimSpace(ch); ch != "" {
			m.missingChannel[ch] = struct{}{}
		}
	}
	return m
}

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	token := flag.String("token", "", "bot token to require (empty accepts any token)")
	missing := flag.String("missing-channels", "", "comma-separated channels that answer channel_not_found")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := newMockSlack(*token, strings.Split(*missing, ","), logger)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Slack server", "addr", addr, "api_url", fmt.Sprintf("http://localhost:%d/api/", *port))

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, m.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (m *mockSlack) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat.postMessage", m.postMessage)
	mux.HandleFunc("POST /webhook", m.webhook)
	mux.HandleFunc("GET /messages", m.list)
	mux.HandleFunc("DELETE /messages", m.reset)
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func slackError(w http.ResponseWriter, code string) {
	writeJSON(w, map[string]any{"ok": false, "error": code})
}

func (m *mockSlack) postMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slackError(w, "invalid_form_data")
		return
	}

	token := r.PostForm.Get("token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		slackError(w, "not_authed")
		return
	}
	if m.token != "" && token != m.token {
		m.log.Warn("rejected token", "token_prefix", prefix(token))
		slackError(w, "invalid_auth")
		return
	}

	channel := r.PostForm.Get("channel")
	if channel == "" {
		slackError(w, "channel_not_found")
		return
	}
	if _, missing := m.missingChannel[channel]; missing {
		slackError(w, "channel_not_found")
		return
	}

	text := r.PostForm.Get("text")
	if text == "" {
		slackError(w, "no_text")
		return
	}

	ts := m.record(message{Channel: channel, Text: text, Source: "api"})

	writeJSON(w, map[string]any{
		"ok":      true,
		"channel": channel,
		"ts":      ts,
		"message": map[string]string{"text": text, "type": "message"},
	})
	m.log.Info("chat.postMessage", "channel", channel, "text", text)
}

func (m *mockSlack) webhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "no_text", http.StatusBadRequest)
		return
	}

	m.record(message{Channel: body.Channel, Text: body.Text, Source: "webhook"})

	w.Header().Set("Content-Type", "text/plain")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte("ok"))
	m.log.Info("webhook", "channel", body.Channel, "text", body.Text)
}

func (m *mockSlack) list(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	msgs := append([]message{}, m.messages...)
	m.mu.Unlock()

	writeJSON(w, msgs)
}

func (m *mockSlack) reset(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// record stores msg and returns a Slack-style message timestamp.
func (m *mockSlack) record(msg message) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	msg.Time = time.Now().UTC()
	m.messages = append(m.messages, msg)

	return strconv.FormatInt(msg.Time.Unix(), 10) + "." + fmt.Sprintf("%06d", m.seq)
}

func prefix(token string) string {
	if len(token) <= 4 {
		return "..."
	}
	return token[:4] + "..."
}
