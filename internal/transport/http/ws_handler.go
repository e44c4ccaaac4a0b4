package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-master/internal/app"
	"quiz-master/internal/domain"
)

type WSHandler struct {
	registry *app.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *app.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
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

type startPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type answerPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

type resetPayload struct {
	Forget bool `json:"forget"`
}

type joinedPayload struct {
	Profile string       `json:"profile"`
	State   domain.State `json:"state"`
}

type answerResult struct {
	QuestionIndex int    `json:"questionIndex"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and attaches them to the
// profile's game. A request without a profile gets a fresh one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	game, err := h.registry.Join(ctx, profile)
	if err != nil {
		slog.ErrorContext(ctx, "ws: join failed", "profile", profile, "error", err)
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer h.registry.Leave(profile)

	updates, cancel := game.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.DebugContext(ctx, "ws: write failed", "profile", profile, "error", err)
				// Unblocks the read loop.
				conn.Close()
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Profile: profile, State: game.State()}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				emit(outboundMessage[any]{Type: "state", Payload: st})
			case <-closeSignals:
				return
			}
		}
	}()

	// Start blocks for the whole fetch, so it runs beside the read loop to keep
	// reset messages flowing.
	var starts sync.WaitGroup

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}})
				continue
			}
			starts.Add(1)
			go func() {
				defer starts.Done()
				err := game.Start(ctx, domain.Player{DisplayName: payload.Name, AvatarRef: payload.Avatar})
				if err != nil {
					emit(errorMessage(err))
				}
			}()
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			rec, st, err := game.Answer(ctx, payload.QuestionIndex, payload.Answer)
			if err != nil {
				emit(errorMessage(err))
				continue
			}
			emit(outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionIndex: payload.QuestionIndex,
				Correct:       rec.WasCorrect,
				CorrectAnswer: rec.Correct,
				Score:         st.Score,
			}})
		case "reset":
			var payload resetPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid reset payload"}})
					continue
				}
			}
			if err := game.Reset(ctx, payload.Forget); err != nil {
				emit(errorMessage(err))
			}
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	cancelCtx()
	starts.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}
