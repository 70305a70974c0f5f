package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/node"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
	"github.com/specialistvlad/shadergrid/internal/session"
)

// statusBoard keeps the session of every project that has started.
type statusBoard struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	order    []string
}

func newStatusBoard() *statusBoard {
	return &statusBoard{sessions: map[string]session.Session{}}
}

// track registers s under its project name, replacing an earlier session.
func (b *statusBoard) track(s session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name := s.Name()
	if _, ok := b.sessions[name]; !ok {
		b.order = append(b.order, name)
	}
	b.sessions[name] = s
}

// projectStatus is the /status view of one project.
type projectStatus struct {
	Steps    map[string]node.Status `json:"steps"`
	Failures map[string]stepFailure `json:"failures,omitempty"`
}

// stepFailure is the error of a failed step and what its command printed.
type stepFailure struct {
	Error  string `json:"error"`
	Output string `json:"output,omitempty"`
}

func failures(ctx context.Context, store nodestore.Store, steps map[string]node.Status) (map[string]stepFailure, error) {
	var out map[string]stepFailure
	for id, status := range steps {
		if status != node.StatusFailed {
			continue
		}
		stepErr, err := store.GetError(ctx, id)
		if err != nil {
			return nil, err
		}
		if stepErr == nil {
			continue
		}
		f := stepFailure{Error: stepErr.Error(), Output: string(builderr.Output(stepErr))}
		if f.Output == "" {
			recorded, err := store.GetOutput(ctx, id)
			if err != nil {
				return nil, err
			}
			if res, ok := recorded.(*invoker.Result); ok {
				f.Output = string(res.Output)
			}
		}
		if out == nil {
			out = map[string]stepFailure{}
		}
		out[id] = f
	}
	return out, nil
}

func (b *statusBoard) snapshot(ctx context.Context) (map[string]projectStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]projectStatus, len(b.sessions))
	for _, name := range b.order {
		store := b.sessions[name].Store()
		steps, err := store.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", name, err)
		}
		failed, err := failures(ctx, store, steps)
		if err != nil {
			return nil, fmt.Errorf("failed to read failures of %s: %w", name, err)
		}
		out[name] = projectStatus{Steps: steps, Failures: failed}
	}
	return out, nil
}

// healthHandler reports that the process is alive.
func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statusHandler serves the status of every step of every started project.
func (app *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr)

	projects, err := app.status.snapshot(r.Context())
	if err != nil {
		logger.Error("Status snapshot failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"projects": projects}); err != nil {
		logger.Error("Failed to encode status", "error", err)
	}
}

func (app *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", app.healthHandler)
	mux.HandleFunc("/status", app.statusHandler)
	return mux
}

// healthCheckServer starts the health check HTTP server in the background.
// It returns once the listener is bound.
func (app *App) healthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring health check server.")
	if app.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return nil
	}

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start health check server: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:              addr,
		Handler:           app.healthMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (app *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing health check server...")

	if app.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(app.ctx, 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}

	logger.Debug("Health check server shut down gracefully.")
	return nil
}
