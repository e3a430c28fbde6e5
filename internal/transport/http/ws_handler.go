package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"snapquiz-service/internal/engine"
	"snapquiz-service/internal/export"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session engine per WebSocket connection. The
// client sends discrete events (generate, select, submit, navigation,
// history operations) and receives state snapshots after every mutation.
type WSHandler struct {
	generator engine.Generator
	history   engine.HistoryGateway
	base      engine.Config
	upgrader  websocket.Upgrader
}

func NewWSHandler(generator engine.Generator, history engine.HistoryGateway, base engine.Config) *WSHandler {
	return &WSHandler{
		generator: generator,
		history:   history,
		base:      base,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type generatePayload struct {
	Document         string `json:"document"`
	Title            string `json:"title"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type recordPayload struct {
	RecordID string `json:"recordId"`
}

type deletedPayload struct {
	Count int `json:"count"`
}

type transcriptPayload struct {
	Content string `json:"content"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the session event loop. Identity
// comes from query parameters; a missing userId means an anonymous session
// whose history is kept unscoped.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	username := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	cfg := h.base
	cfg.UserID = userID
	cfg.Username = username
	ctrl := engine.NewController(h.generator, h.history, cfg)
	defer ctrl.Close()

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handle(r.Context(), ctrl, userID, username, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle dispatches one inbound event. State changes are reported via the
// subscription; only request/response events return a direct message.
func (h *WSHandler) handle(ctx context.Context, ctrl *engine.Controller, userID, username string, inbound inboundMessage) (outboundMessage[any], bool) {
	fail := func(msg string) (outboundMessage[any], bool) {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}, true
	}

	switch inbound.Type {
	case "generate":
		var payload generatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail("invalid generate payload")
		}
		ctrl.Generate(ctx, engine.GenerateRequest{
			Document:         payload.Document,
			Title:            payload.Title,
			QuestionCount:    payload.QuestionCount,
			TimeLimitMinutes: payload.TimeLimitMinutes,
		})
		return outboundMessage[any]{}, false

	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail("invalid select payload")
		}
		if err := ctrl.Select(payload.Option); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "submit":
		if err := ctrl.SubmitCurrent(); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "next":
		if err := ctrl.Next(); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "previous":
		if err := ctrl.Previous(); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "jump":
		var payload jumpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail("invalid jump payload")
		}
		if err := ctrl.JumpTo(payload.Index); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "retry":
		if err := ctrl.Retry(); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{}, false

	case "newQuiz":
		ctrl.NewQuiz()
		return outboundMessage[any]{}, false

	case "history":
		records, err := h.history.ListForUser(ctx, userID)
		if err != nil {
			return fail("failed to load history")
		}
		return outboundMessage[any]{Type: "history", Payload: records}, true

	case "retake":
		var payload recordPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail("invalid retake payload")
		}
		records, err := h.history.ListForUser(ctx, userID)
		if err != nil {
			return fail("failed to load history")
		}
		for _, rec := range records {
			if rec.ID == payload.RecordID {
				ctrl.RetakeFromRecord(rec)
				return outboundMessage[any]{}, false
			}
		}
		return fail("history record not found")

	case "deleteRecord":
		var payload recordPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail("invalid delete payload")
		}
		if err := h.history.Delete(ctx, payload.RecordID); err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{Type: "deleted", Payload: deletedPayload{Count: 1}}, true

	case "clearHistory":
		count, err := h.history.DeleteAllForUser(ctx, userID)
		if err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{Type: "deleted", Payload: deletedPayload{Count: count}}, true

	case "share":
		rec, err := ctrl.Record()
		if err != nil {
			return fail(err.Error())
		}
		return outboundMessage[any]{Type: "share", Payload: export.Summarize(rec, username, time.Now())}, true

	case "download":
		rec, err := ctrl.Record()
		if err != nil {
			return fail(err.Error())
		}
		score := ctrl.Snapshot().Score
		content := export.Transcript(rec, username, score, time.Now())
		return outboundMessage[any]{Type: "transcript", Payload: transcriptPayload{Content: content}}, true

	default:
		return fail("unsupported message type")
	}
}
