// Package webui serves the dashboard: the bootstrap snapshot, the push
// channel and the roster/alert intake endpoints.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/kayz/biometrics/internal/dashboard"
	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/persist"
)

// DefaultBroadcastSchedule pushes a metrics snapshot every 3 seconds.
const DefaultBroadcastSchedule = "@every 3s"

// RosterStore persists agents and alerts.
type RosterStore interface {
	UpsertAgent(a persist.Agent) error
	DeleteAgent(id string) error
	ListAgents() ([]persist.Agent, error)
	AddAlert(message, severity string) (*persist.AlertRecord, error)
	RecentAlerts(limit int) ([]persist.AlertRecord, error)
}

type Server struct {
	store     RosterStore
	hub       *Hub
	sampler   *Sampler
	registry  *prometheus.Registry
	metrics   *serverMetrics
	upgrader  websocket.Upgrader
	startedAt time.Time

	mu   sync.Mutex
	last dashboard.Metrics
	cron *cron.Cron
}

func NewServer(store RosterStore) *Server {
	now := time.Now().UTC()
	reg := prometheus.NewRegistry()
	s := &Server{
		store:     store,
		hub:       NewHub(),
		sampler:   NewSampler(now),
		registry:  reg,
		metrics:   newServerMetrics(reg),
		startedAt: now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.hub.onCount = func(n int) { s.metrics.clients.Set(float64(n)) }
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc(dashboard.BootstrapPath, s.handleData)
	mux.HandleFunc("/api/agents", s.handleAgents)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc(dashboard.PushPath, s.handlePush)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.instrument(mux)
}

// Start schedules the periodic metrics broadcast.
func (s *Server) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultBroadcastSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.BroadcastMetrics); err != nil {
		return fmt.Errorf("invalid broadcast schedule %q: %w", schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	logger.Info("[Dashboard] broadcasting metrics %s", schedule)
	return nil
}

// Stop ends the broadcast schedule and disconnects every client.
func (s *Server) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
	s.hub.Close()
}

// BroadcastMetrics samples the request statistics and pushes them.
func (s *Server) BroadcastMetrics() {
	m := s.sampler.Sample(time.Now())
	m.QueueSize = s.hub.QueueSize()
	s.metrics.queueSize.Set(float64(m.QueueSize))

	s.mu.Lock()
	s.last = m
	s.mu.Unlock()

	s.broadcast(dashboard.TypeMetrics, m)
}

func (s *Server) broadcast(t dashboard.MessageType, payload any) {
	env, err := dashboard.NewEnvelope(t, payload)
	if err != nil {
		logger.Error("[Dashboard] %v", err)
		return
	}
	n := s.hub.Broadcast(env)
	s.metrics.broadcastsTotal.WithLabelValues(string(t)).Inc()
	logger.Trace("[Dashboard] %s pushed to %d clients", t, n)
}

// Snapshot is the bootstrap document.
func (s *Server) Snapshot() (dashboard.Snapshot, error) {
	agents, err := s.roster()
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	s.mu.Lock()
	m := s.last
	s.mu.Unlock()
	return dashboard.Snapshot{Metrics: m, Agents: agents}, nil
}

func (s *Server) roster() ([]dashboard.Agent, error) {
	rows, err := s.store.ListAgents()
	if err != nil {
		return nil, err
	}
	agents := make([]dashboard.Agent, 0, len(rows))
	for _, r := range rows {
		agents = append(agents, toDashboard(r))
	}
	return agents, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
		"clients":    s.hub.ClientCount(),
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Dashboard] WebSocket upgrade failed: %v", err)
		return
	}

	var greeting []dashboard.Envelope
	if agents, err := s.roster(); err == nil {
		if env, err := dashboard.NewEnvelope(dashboard.TypeAgents, agents); err == nil {
			greeting = append(greeting, env)
		}
	}
	s.hub.Serve(conn, greeting...)
}

// agentRequest accepts either a single agent or a list.
type agentRequest []dashboard.Agent

func (a *agentRequest) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, (*[]dashboard.Agent)(a))
	}
	var one dashboard.Agent
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*a = agentRequest{one}
	return nil
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		agents, err := s.roster()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, agents)
		return
	case http.MethodPost:
		var req agentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		for _, a := range req {
			a.ID = strings.TrimSpace(a.ID)
			if a.ID == "" || strings.TrimSpace(a.Name) == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name are required"})
				return
			}
		}
		for _, a := range req {
			if err := s.store.UpsertAgent(fromDashboard(a)); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
		}
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
			return
		}
		if err := s.store.DeleteAgent(id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	agents, err := s.roster()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.broadcast(dashboard.TypeAgents, agents)
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		alerts, err := s.store.RecentAlerts(20)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		out := make([]dashboard.Alert, 0, len(alerts))
		for _, a := range alerts {
			out = append(out, dashboard.Alert{Message: a.Message, Severity: a.Severity})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req dashboard.Alert
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
			return
		}
		switch req.Severity {
		case dashboard.SeveritySuccess, dashboard.SeverityInfo, dashboard.SeverityWarning, dashboard.SeverityError:
		case "":
			req.Severity = dashboard.SeverityInfo
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown severity"})
			return
		}
		if _, err := s.store.AddAlert(req.Message, req.Severity); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		s.broadcast(dashboard.TypeAlert, req)
		writeJSON(w, http.StatusAccepted, req)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func toDashboard(a persist.Agent) dashboard.Agent {
	return dashboard.Agent{
		ID:             a.ID,
		Name:           a.Name,
		Role:           a.Role,
		Status:         a.Status,
		TasksCompleted: a.TasksCompleted,
		AvgTime:        a.AvgTimeMs,
		Errors:         a.Errors,
		Progress:       a.Progress,
		CurrentTask:    a.CurrentTask,
	}
}

func fromDashboard(a dashboard.Agent) persist.Agent {
	status := a.Status
	if status == "" {
		status = "idle"
	}
	return persist.Agent{
		ID:             strings.TrimSpace(a.ID),
		Name:           a.Name,
		Role:           a.Role,
		Status:         status,
		TasksCompleted: a.TasksCompleted,
		AvgTimeMs:      a.AvgTime,
		Errors:         a.Errors,
		Progress:       a.Progress,
		CurrentTask:    a.CurrentTask,
	}
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Dashboard] Listening on %s", addr)
		logger.Info("[Dashboard] Push channel: ws://<host>%s%s", addr, dashboard.PushPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Dashboard] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Stop()
	return httpServer.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const defaultIndexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>BIOMETRICS Dashboard</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: #0f0f1a; color: #e0e0f0; }
    .wrap { max-width: 960px; margin: 0 auto; padding: 20px; }
    .cards { display: flex; gap: 12px; flex-wrap: wrap; }
    .card { background: #1a1a2e; border-radius: 10px; padding: 12px 16px; min-width: 150px; }
    .label { color: #a0a0b0; font-size: 12px; }
    .value { font-size: 24px; font-weight: bold; }
    #alert { margin: 12px 0; padding: 8px 12px; border-radius: 8px; display: none; }
    #alert.success { background: #04b575; display: block; }
    #alert.error { background: #ff3366; display: block; }
    #alert.info, #alert.warning { background: #00b7ff; display: block; }
    table { width: 100%; margin-top: 16px; border-collapse: collapse; }
    td, th { text-align: left; padding: 6px; border-bottom: 1px solid #2a2a3e; }
  </style>
</head>
<body>
  <div class="wrap">
    <h2>BIOMETRICS Dashboard</h2>
    <div id="alert"></div>
    <div class="cards">
      <div class="card"><div class="label">Request Rate</div><div class="value" id="request-rate">0</div></div>
      <div class="card"><div class="label">Avg Response (ms)</div><div class="value" id="avg-response">0</div></div>
      <div class="card"><div class="label">Error Rate</div><div class="value" id="error-rate">0.00%</div></div>
      <div class="card"><div class="label">Queue</div><div class="value" id="queue-size">0</div></div>
    </div>
    <table><thead><tr><th>Agent</th><th>Role</th><th>Status</th><th>Progress</th><th>Task</th></tr></thead><tbody id="agents"></tbody></table>
  </div>
  <script>
    const $ = (id) => document.getElementById(id);
    let hideTimer = null, reconnectTimer = null;
    function alertBanner(message, severity) {
      $('alert').textContent = message; $('alert').className = severity || 'info';
      clearTimeout(hideTimer); hideTimer = setTimeout(() => { $('alert').className = ''; }, 5000);
    }
    function metrics(m) {
      $('request-rate').textContent = Math.round(m.requestRate || 0);
      $('avg-response').textContent = Math.round(m.avgResponse || 0);
      $('error-rate').textContent = (m.errorRate || 0).toFixed(2) + '%';
      $('queue-size').textContent = m.queueSize || 0;
    }
    function agents(list) {
      $('agents').innerHTML = '';
      (list || []).forEach(a => {
        const tr = document.createElement('tr');
        [a.name, a.role, a.status, Math.round(a.progress || 0) + '%', a.currentTask || 'Idle'].forEach(v => {
          const td = document.createElement('td'); td.textContent = v; tr.appendChild(td);
        });
        $('agents').appendChild(tr);
      });
    }
    function handle(msg) {
      if (msg.type === 'metrics') metrics(msg.payload);
      else if (msg.type === 'agents') agents(msg.payload);
      else if (msg.type === 'alert') alertBanner(msg.payload.message, msg.payload.severity);
    }
    function connect() {
      const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/dashboard');
      ws.onopen = () => alertBanner('Connected to BIOMETRICS', 'success');
      ws.onmessage = (e) => handle(JSON.parse(e.data));
      ws.onclose = () => {
        alertBanner('Connection error - retrying...', 'error');
        clearTimeout(reconnectTimer); reconnectTimer = setTimeout(connect, 5000);
      };
    }
    fetch('/api/dashboard/data').then(r => r.json()).then(d => { metrics(d.metrics || {}); agents(d.agents); }).catch(() => {});
    connect();
  </script>
</body>
</html>`
