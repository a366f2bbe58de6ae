package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studio/pkg/config"
	"studio/pkg/eventlog"
	"studio/pkg/interact"
	"studio/pkg/logx"
	"studio/pkg/metrics"
	"studio/pkg/orchestrator"
	"studio/pkg/persistence"
	"studio/pkg/proto"
	"studio/pkg/store"
	"studio/pkg/transport"
	"studio/pkg/version"
)

// Daemon wires the coordination core together for one (project, session)
// pair: persisted session state, the skill orchestrator, and the transport
// channel to browser observers.
type Daemon struct {
	cfg          *config.Config
	project      string
	session      string
	orchestrator *orchestrator.Orchestrator
	client       *transport.Client
	eventLog     *eventlog.Writer
	queries      *metrics.QueryService
	logger       *logx.Logger
}

func main() {
	var configPath string
	var project string
	var session string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&project, "project", "", "Project identifier")
	flag.StringVar(&session, "session", "", "Session name within the project")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	if project == "" || session == "" {
		log.Fatal("both -project and -session are required")
	}

	if err := config.Init(configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	daemon, err := NewDaemon(cfg, project, session)
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}
}

// NewDaemon builds the coordination core from config.
func NewDaemon(cfg *config.Config, project, session string) (*Daemon, error) {
	logger := logx.NewLogger("daemon")

	if err := persistence.Initialize(cfg.Storage.ArchivePath); err != nil {
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	eventLog, err := eventlog.NewWriter(cfg.Storage.EventLogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	sessions, err := store.NewStore(cfg.Storage.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := transport.NewClient(transport.Config{
		URL:                  cfg.Transport.URL,
		DialTimeout:          cfg.Transport.DialTimeout,
		WriteWait:            cfg.Transport.WriteWait,
		ReconnectBaseDelay:   cfg.Transport.ReconnectBaseDelay,
		MaxReconnectAttempts: cfg.Transport.MaxReconnectAttempts,
	})

	orch := orchestrator.New(sessions, client, interact.NewManager())
	orch.SetArchive(persistence.Ops())
	orch.SetEventSink(eventLog)

	var queries *metrics.QueryService
	if cfg.Metrics.Enabled {
		recorder := metrics.NewRecorder()
		orch.SetMetrics(recorder)
		client.OnConnect(func() {
			// Counted on every establishment; the first connect is attempt zero.
			recorder.IncReconnect()
		})
		if cfg.Metrics.PrometheusURL != "" {
			queries, err = metrics.NewQueryService(cfg.Metrics.PrometheusURL)
			if err != nil {
				return nil, fmt.Errorf("failed to create metrics query service: %w", err)
			}
		}
	}

	return &Daemon{
		cfg:          cfg,
		project:      project,
		session:      session,
		orchestrator: orch,
		client:       client,
		eventLog:     eventLog,
		queries:      queries,
		logger:       logger,
	}, nil
}

// Run connects the transport, serves until the context is canceled, then
// shuts down cleanly.
func (d *Daemon) Run(ctx context.Context) error {
	channel := d.project + "/" + d.session

	d.client.OnConnect(func() {
		if err := d.client.Subscribe(channel); err != nil {
			d.logger.Warn("subscribe failed: %v", err)
		}
	})
	d.client.OnMessage(d.handleMessage)
	d.client.OnDisconnect(func(err error) {
		if err != nil {
			d.logger.Warn("transport disconnected: %v", err)
		}
	})

	if err := d.client.Connect(ctx); err != nil {
		// The client keeps queued messages and the caller may retry; for the
		// daemon a dead endpoint at boot is fatal.
		return fmt.Errorf("failed to connect transport: %w", err)
	}

	var metricsServer *http.Server
	if d.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/status", d.handleStatus)
		metricsServer = &http.Server{Addr: d.cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				d.logger.Error("metrics server: %v", err)
			}
		}()
		d.logger.Info("metrics listening on %s", d.cfg.Metrics.Addr)
	}

	d.logger.Info("coordinating %s", channel)
	<-ctx.Done()
	d.logger.Info("shutdown requested")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	d.client.Disconnect()
	if err := d.eventLog.Close(); err != nil {
		d.logger.Warn("event log close: %v", err)
	}
	if err := persistence.Close(); err != nil {
		d.logger.Warn("archive close: %v", err)
	}
	return nil
}

// statusReport is the JSON body served at /status on the metrics listener.
type statusReport struct {
	Project        string                  `json:"project"`
	Session        string                  `json:"session"`
	Transport      string                  `json:"transport"`
	EventLogFiles  []string                `json:"event_log_files"`
	EventsToday    int                     `json:"events_today"`
	SessionMetrics *metrics.SessionMetrics `json:"session_metrics,omitempty"`
}

// handleStatus reports the daemon's coordination state: transport health,
// event log inventory, and (when a Prometheus URL is configured) aggregated
// session metrics read back from Prometheus.
func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := statusReport{
		Project:   d.project,
		Session:   d.session,
		Transport: string(d.client.State()),
	}

	files, err := eventlog.ListLogFiles(d.cfg.Storage.EventLogDir)
	if err != nil {
		d.logger.Warn("status: failed to list event logs: %v", err)
	}
	report.EventLogFiles = files

	if current := d.eventLog.CurrentLogFile(); current != "" {
		msgs, err := eventlog.ReadRawMessages(current)
		if err != nil {
			d.logger.Warn("status: failed to read current event log: %v", err)
		}
		report.EventsToday = len(msgs)
	}

	if d.queries != nil {
		sm, err := d.queries.GetSessionMetrics(r.Context(), d.project, d.session)
		if err != nil {
			d.logger.Warn("status: session metrics unavailable: %v", err)
		} else {
			report.SessionMetrics = sm
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		d.logger.Warn("status: failed to encode report: %v", err)
	}
}

// handleMessage dispatches inbound transport frames. Only ui_response frames
// concern the core; everything else is observer traffic.
func (d *Daemon) handleMessage(data []byte) {
	msgType, err := proto.PeekType(data)
	if err != nil {
		d.logger.Warn("undecodable message: %v", err)
		return
	}

	switch msgType {
	case proto.MsgTypeUIResponse:
		var msg proto.UIResponseMsg
		if err := proto.Unmarshal(data, &msg); err != nil {
			d.logger.Warn("malformed ui_response: %v", err)
			return
		}
		if !d.orchestrator.Respond(d.project, d.session, &msg) {
			d.logger.Debug("stale ui_response %s ignored", msg.ComponentID)
		}
	default:
		// Observer-bound traffic echoed on the channel; nothing to do.
	}
}
