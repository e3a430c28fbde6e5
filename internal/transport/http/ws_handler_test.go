package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snapquiz-service/internal/domain"
	"snapquiz-service/internal/engine"
	"snapquiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, engine.GenerateRequest) (engine.GenerateResult, error) {
	return engine.GenerateResult{
		Questions: domain.QuestionSet{
			{
				Text:       "What is 2 + 2?",
				Options:    map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
				Answer:     "B",
				Difficulty: domain.DifficultyEasy,
			},
		},
	}, nil
}

func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	handler := NewWSHandler(stubGenerator{}, memory.NewHistoryStore(), engine.Config{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn) (string, any) {
	t.Helper()
	var msg struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

// waitForSessionState drains state broadcasts until the session reaches the
// wanted state, failing on any error message along the way.
func waitForSessionState(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(t, conn)
		if typ == "error" {
			t.Fatalf("unexpected error message: %v", payload)
		}
		snap, ok := payload.(map[string]any)
		if typ == "state" && ok && snap["state"] == want {
			return snap
		}
	}
	t.Fatalf("never reached state %q", want)
	return nil
}

// waitForMessage drains state broadcasts until a message of the wanted type
// arrives.
func waitForMessage(t *testing.T, conn *websocket.Conn, want string) any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(t, conn)
		if typ == want {
			return payload
		}
		if typ != "state" {
			t.Fatalf("expected %s, got %s %v", want, typ, payload)
		}
	}
	t.Fatalf("no %s message received", want)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocketQuizFlow(t *testing.T) {
	conn := newTestConn(t)

	// The initial snapshot arrives as soon as the subscription is set up.
	waitForSessionState(t, conn, "idle")

	send(t, conn, "generate", map[string]any{
		"document":      "some document text",
		"title":         "sample.pdf",
		"questionCount": 1,
	})
	active := waitForSessionState(t, conn, "active")
	if questions, ok := active["questions"].([]any); !ok || len(questions) != 1 {
		t.Fatalf("expected 1 question in active state, got %v", active["questions"])
	}

	send(t, conn, "select", map[string]any{"option": "B"})
	send(t, conn, "submit", nil)

	complete := waitForSessionState(t, conn, "complete")
	score, ok := complete["score"].(map[string]any)
	if !ok {
		t.Fatalf("expected score in complete state, got %v", complete)
	}
	if score["correct"] != float64(1) || score["percentage"] != float64(100) {
		t.Fatalf("unexpected score %v", score)
	}

	send(t, conn, "download", nil)
	payload, _ := waitForMessage(t, conn, "transcript").(map[string]any)
	content, _ := payload["content"].(string)
	if !strings.Contains(content, "Result: Correct") {
		t.Fatalf("unexpected transcript:\n%s", content)
	}

	send(t, conn, "share", nil)
	summary, _ := waitForMessage(t, conn, "share").(map[string]any)
	if summary["username"] != "Alice" || summary["percentage"] != float64(100) {
		t.Fatalf("unexpected share summary %v", summary)
	}
}

func TestWebSocketHistoryAfterCompletion(t *testing.T) {
	conn := newTestConn(t)
	waitForSessionState(t, conn, "idle")

	send(t, conn, "generate", map[string]any{"document": "text", "title": "notes.pdf", "questionCount": 1})
	waitForSessionState(t, conn, "active")
	send(t, conn, "select", map[string]any{"option": "A"})
	send(t, conn, "submit", nil)
	waitForSessionState(t, conn, "complete")

	// Persistence is fire-and-forget, so poll until the record lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		send(t, conn, "history", nil)
		records, _ := waitForMessage(t, conn, "history").([]any)
		if len(records) == 1 {
			rec, _ := records[0].(map[string]any)
			if rec["title"] != "notes.pdf" {
				t.Fatalf("unexpected record %v", rec)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("history record never persisted")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWebSocketRejectsUnknownMessage(t *testing.T) {
	conn := newTestConn(t)
	waitForSessionState(t, conn, "idle")

	send(t, conn, "bogus", nil)
	payload, _ := waitForMessage(t, conn, "error").(map[string]any)
	if msg, _ := payload["message"].(string); msg != "unsupported message type" {
		t.Fatalf("unexpected error message %q", msg)
	}
}
