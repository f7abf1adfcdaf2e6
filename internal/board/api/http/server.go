package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"urban-bites/internal/board/api/http/handle"
	"urban-bites/internal/board/engine"
	"urban-bites/internal/gateway"
	"urban-bites/internal/localstore"
	"urban-bites/internal/mirror"
	"urban-bites/internal/outbox"
	"urban-bites/internal/syncbus"
	"urban-bites/internal/xpkg/config"
	"urban-bites/internal/xpkg/logger"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

var ErrServerClosed = errors.New("server closed")

const shutdownTimeout = 10 * time.Second

// Server is one kitchen display: the display engine plus a staff-facing API.
type Server struct {
	ctx   context.Context
	cfg   *config.Config
	mylog logger.Logger

	router *mux.Router
	srv    *http.Server
	gw     *gateway.Gateway
	engine *engine.Engine
	flush  *outbox.Flusher
	mu     sync.Mutex
}

func NewServer(ctx context.Context, cfg *config.Config, mylog logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		cfg:    cfg,
		mylog:  mylog,
		router: mux.NewRouter(),
	}
}

func (s *Server) Run() error {
	mylog := s.mylog.Action("server_starting")

	if err := s.initializeStack(); err != nil {
		mylog.Action("stack_init_failed").Error("Failed to initialize board stack", err)
		return err
	}

	s.configureRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Authorization"},
		AllowCredentials: true,
	})

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           c.Handler(s.router),
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.mu.Unlock()

	mylog.With("port", s.cfg.Port, "poll_interval", s.cfg.PollInterval.String()).Info("Kitchen board is running")
	return s.startHTTPServer()
}

func (s *Server) initializeStack() error {
	store := localstore.Open(s.cfg.DataDir, s.mylog)
	bus := syncbus.New(s.mylog)

	var remote gateway.IRemoteMirror = mirror.Noop{}
	if !s.cfg.LocalOnly() {
		pg, err := mirror.Connect(s.ctx, s.cfg.DatabaseURL, s.mylog)
		if err != nil {
			s.mylog.Action("mirror_unavailable").Error("Remote unreachable, continuing local-only", err)
		} else {
			remote = pg
			s.flush = outbox.New(store, pg, s.cfg.FlushInterval, s.mylog)
			s.flush.Start(s.ctx)
		}
	}

	s.gw = gateway.New(store, remote, bus, s.cfg.ServiceChargePct, s.mylog)
	s.engine = engine.New(s.gw, s.cfg.PollInterval, s.mylog)

	// A board that cannot read its local store must fail loudly at startup.
	return s.engine.Start(s.ctx)
}

func (s *Server) configureRoutes() {
	boardHandler := handle.NewBoardHandler(s.engine, s.gw, s.mylog)

	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", boardHandler.Columns()).Methods("GET")
	api.HandleFunc("/board/orders/{id}/advance", boardHandler.Advance()).Methods("POST")
	api.HandleFunc("/orders/{id}/items", boardHandler.Items()).Methods("GET")
	api.HandleFunc("/stats", boardHandler.Stats()).Methods("GET")
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down kitchen board")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.engine != nil {
		s.engine.Stop()
	}
	if s.flush != nil {
		s.flush.Stop()
	}
	if s.gw != nil {
		if err := s.gw.Close(); err != nil {
			s.mylog.Action("stack_close_failed").Error("Failed to close board stack", err)
			return err
		}
	}

	s.mylog.Action("graceful_shutdown_completed").Info("Kitchen board shut down gracefully")
	return nil
}
