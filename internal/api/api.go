// Package api implements the LifeRank HTTP API: registration and login,
// profile management, life-score tracking, goals, activity logs, and the AI
// coach chat.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/LifeRank/internal/auth"
	"github.com/BTreeMap/LifeRank/internal/coach"
	"github.com/BTreeMap/LifeRank/internal/genai"
	"github.com/BTreeMap/LifeRank/internal/knowledge"
	"github.com/BTreeMap/LifeRank/internal/lifescore"
	"github.com/BTreeMap/LifeRank/internal/lockfile"
	"github.com/BTreeMap/LifeRank/internal/models"
	"github.com/BTreeMap/LifeRank/internal/store"
)

// Default configuration values for the API server.
const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
	// DefaultStateDir is the default directory for lock and state files.
	DefaultStateDir = "/var/lib/liferank"
	// readHeaderTimeout bounds how long a client may take to send headers.
	readHeaderTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address. Empty means DefaultAddr.
	Addr string
	// StateDir is where the instance lock file lives. Empty means DefaultStateDir.
	StateDir string
	// HistoryLimit caps the chat history loaded per coach request. Zero means unlimited.
	HistoryLimit int
	// KnowledgeFile overrides the built-in coaching knowledge document.
	KnowledgeFile string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithStateDir sets the state directory used for the instance lock.
func WithStateDir(dir string) Option {
	return func(o *Opts) {
		o.StateDir = dir
	}
}

// WithHistoryLimit caps the chat history loaded per coach request.
func WithHistoryLimit(n int) Option {
	return func(o *Opts) {
		o.HistoryLimit = n
	}
}

// WithKnowledgeFile overrides the coaching knowledge document path.
func WithKnowledgeFile(path string) Option {
	return func(o *Opts) {
		o.KnowledgeFile = path
	}
}

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	addr      string
	st        store.Store
	auth      *auth.Service
	scores    *lifescore.Manager
	assembler *coach.Assembler
	coach     *coach.Coach
}

// NewServer creates an API server with explicit dependencies. It performs no
// I/O; Run wires dependencies from options and starts listening.
func NewServer(st store.Store, authSvc *auth.Service, scores *lifescore.Manager, assembler *coach.Assembler, c *coach.Coach, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:      addr,
		st:        st,
		auth:      authSvc,
		scores:    scores,
		assembler: assembler,
		coach:     c,
	}
}

// Handler returns the routed HTTP handler with request-ID middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/auth/register", s.registerHandler)
	mux.HandleFunc("/auth/login", s.loginHandler)
	mux.HandleFunc("/auth/verify-token", s.verifyTokenHandler)
	mux.HandleFunc("/users/me", s.userMeHandler)
	mux.HandleFunc("/users/me/reactivate", s.reactivateHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.HandleFunc("/stats/update", s.statsUpdateHandler)
	mux.HandleFunc("/stats/history", s.statsHistoryHandler)
	mux.HandleFunc("/goals", s.goalsHandler)
	mux.HandleFunc("/goals/", s.goalProgressHandler)
	mux.HandleFunc("/activity", s.activityHandler)
	mux.HandleFunc("/chat/send", s.chatSendHandler)
	mux.HandleFunc("/chat/history", s.chatHistoryHandler)
	return requestIDMiddleware(mux)
}

// Start listens on the configured address and serves requests until the
// listener fails.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	slog.Info("Server.Start: LifeRank API listening", "addr", s.addr)
	return srv.ListenAndServe()
}

// healthHandler reports service liveness (GET /health).
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}

// Run wires the server from module options and blocks serving HTTP.
//
// The store backend is selected by DSN: a Postgres URL or key=value string
// selects PostgreSQL, any other non-empty DSN selects SQLite, and no DSN at
// all selects the in-memory store. A missing or failing GenAI configuration
// is not fatal; the coach degrades to rule-based responses.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, authOpts []auth.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = DefaultStateDir
	}

	// One instance per state directory. The lock is released on return and
	// implicitly by the OS if the process dies.
	lock, err := lockfile.AcquireLock(stateDir)
	if err != nil {
		slog.Error("Server.Run: failed to acquire instance lock", "error", err, "stateDir", stateDir)
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	defer lock.Release()

	st, err := openStore(storeOpts)
	if err != nil {
		slog.Error("Server.Run: failed to open store", "error", err)
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	authSvc, err := auth.NewService(authOpts...)
	if err != nil {
		slog.Error("Server.Run: failed to create auth service", "error", err)
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	var generator coach.Generator
	if gen, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("Server.Run: GenAI unavailable, coach will use rule-based responses", "error", err)
	} else {
		generator = gen
	}

	var knOpts []knowledge.Option
	if cfg.KnowledgeFile != "" {
		knOpts = append(knOpts, knowledge.WithFilePath(cfg.KnowledgeFile))
	}

	scores := lifescore.NewManager(st)
	var asmOpts []coach.Option
	if cfg.HistoryLimit > 0 {
		asmOpts = append(asmOpts, coach.WithHistoryLimit(cfg.HistoryLimit))
	}
	assembler := coach.NewAssembler(st, scores, asmOpts...)
	coachSvc := coach.NewCoach(generator, knowledge.NewLoader(knOpts...))

	srv := NewServer(st, authSvc, scores, assembler, coachSvc, apiOpts...)
	return srv.Start()
}

// openStore selects and opens the store backend from options.
func openStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("Server.openStore: no DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == store.DSNTypePostgres {
		slog.Debug("Server.openStore: opening PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("Server.openStore: opening SQLite store", "path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}
