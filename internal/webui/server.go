package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kayz/boardctl/internal/logger"
	"github.com/kayz/boardctl/internal/onboarding"
)

// Flow is the slice of the synchronizer the panel drives.
type Flow interface {
	Snapshot() onboarding.Snapshot
	ToggleOption(label string)
	SetOtherText(text string)
	SubmitAnswer(ctx context.Context)
	ConfirmDraft(ctx context.Context)
}

// panelClient is one connected browser tab. All writes to the conn go
// through send: gorilla/websocket allows only one concurrent writer,
// and the handshake snapshot races Publish without it.
type panelClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *panelClient) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Server serves the local onboarding panel: an index page, a state
// endpoint, command endpoints, and a websocket that pushes a fresh
// snapshot on every state change.
type Server struct {
	flow      Flow
	boardID   string
	startedAt time.Time

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*panelClient]bool
}

func NewServer(flow Flow, boardID string) *Server {
	return &Server{
		flow:      flow,
		boardID:   boardID,
		startedAt: time.Now().UTC(),
		upgrader: websocket.Upgrader{
			// The panel binds to localhost; cross-origin pages are
			// still refused by the default origin check.
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*panelClient]bool),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/answer", s.handleAnswer)
	mux.HandleFunc("/api/confirm", s.handleConfirm)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Publish pushes a snapshot to every connected websocket client. Wire
// it as the synchronizer's OnChange callback.
func (s *Server) Publish(snap onboarding.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}

	s.mu.Lock()
	clients := make([]*panelClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(payload); err != nil {
			logger.Trace("[WebUI] dropping websocket client: %v", err)
			s.drop(c)
		}
	}
}

func (s *Server) drop(c *panelClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"board_id":   s.boardID,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.flow.Snapshot())
}

type toggleRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}

	s.flow.ToggleOption(req.Label)
	writeJSON(w, http.StatusOK, s.flow.Snapshot())
}

type answerRequest struct {
	OtherText string `json:"other_text"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	s.flow.SetOtherText(req.OtherText)
	s.flow.SubmitAnswer(r.Context())
	writeJSON(w, http.StatusOK, s.flow.Snapshot())
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s.flow.ConfirmDraft(r.Context())
	writeJSON(w, http.StatusOK, s.flow.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[WebUI] websocket upgrade failed: %v", err)
		return
	}

	client := &panelClient{conn: conn}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	// Send the current state right away so a fresh tab renders without
	// waiting for the next change.
	if payload, err := json.Marshal(s.flow.Snapshot()); err == nil {
		if err := client.send(payload); err != nil {
			s.drop(client)
			return
		}
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(client)
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const indexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>boardctl onboarding</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: linear-gradient(145deg,#f7fafc,#e9eef7); color: #1f2937; }
    .wrap { max-width: 640px; margin: 0 auto; padding: 20px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; }
    .error { border: 1px solid #fecaca; background: #fef2f2; color: #b91c1c; border-radius: 8px; padding: 8px 12px; margin-bottom: 10px; }
    .option { display: block; width: 100%; text-align: left; margin: 6px 0; padding: 10px; border: 1px solid #cbd5e1; border-radius: 8px; background: #f8fafc; cursor: pointer; }
    .option.selected { background: #0f766e; color: #fff; border-color: #0f766e; }
    .row { display: flex; gap: 8px; margin-top: 10px; }
    input { flex: 1; padding: 10px; border: 1px solid #cbd5e1; border-radius: 8px; }
    button.action { padding: 10px 16px; border: 0; border-radius: 8px; background: #0f766e; color: #fff; cursor: pointer; }
    button.action:disabled { background: #94a3b8; cursor: default; }
    pre { white-space: pre-wrap; background: #f8fafc; border: 1px solid #e2e8f0; border-radius: 8px; padding: 8px; font-size: 12px; }
    .muted { color: #64748b; font-size: 14px; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h2>Board onboarding</h2>
      <div id="app" class="muted">Connecting...</div>
    </div>
  </div>
  <script>
    const app = document.getElementById('app');
    let state = null;

    const post = (path, body) => fetch(path, { method: 'POST', headers: {'Content-Type':'application/json'}, body: JSON.stringify(body || {}) });

    function render() {
      if (!state) return;
      if (state.done) {
        app.innerHTML = '<p>Onboarding complete.</p>' + (state.board ? '<pre>' + JSON.stringify(state.board, null, 2) + '</pre>' : '');
        return;
      }
      let html = '';
      if (state.error) html += '<div class="error">' + state.error + '</div>';
      if (state.phase === 'draft') {
        const d = state.draft || {};
        html += '<p>Review the lead agent draft and confirm.</p>';
        html += '<pre>' + JSON.stringify(d, null, 2) + '</pre>';
        html += '<button class="action" id="confirm"' + (state.loading ? ' disabled' : '') + '>Confirm goal</button>';
      } else if (state.phase === 'question') {
        html += '<p><strong>' + state.question.question + '</strong></p>';
        const selected = state.selected || [];
        for (const opt of state.question.options) {
          const cls = selected.includes(opt.label) ? 'option selected' : 'option';
          html += '<button class="' + cls + '" data-label="' + opt.label + '">' + opt.label + '</button>';
        }
        html += '<div class="row"><input id="other" placeholder="Other..." /><button class="action" id="send"' + (state.loading ? ' disabled' : '') + '>' + (state.loading ? 'Sending...' : 'Next') + '</button></div>';
      } else {
        html += '<p class="muted">' + (state.loading ? 'Waiting for the lead agent...' : 'Preparing onboarding...') + '</p>';
      }
      app.innerHTML = html;

      for (const btn of app.querySelectorAll('.option')) {
        btn.addEventListener('click', () => post('/api/toggle', { label: btn.dataset.label }));
      }
      const send = document.getElementById('send');
      if (send) send.addEventListener('click', () => {
        const other = document.getElementById('other');
        post('/api/answer', { other_text: other ? other.value : '' });
      });
      const confirm = document.getElementById('confirm');
      if (confirm) confirm.addEventListener('click', () => post('/api/confirm'));
    }

    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = (event) => { state = JSON.parse(event.data); render(); };
    ws.onclose = () => { app.textContent = 'Connection closed.'; };
  </script>
</body>
</html>`
