// Package notify tells interested listeners, such as a running engine, that
// shaders were rebuilt.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/executor"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/project"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event describes one rebuild.
type Event struct {
	Project      string
	Artifacts    []string
	TableRebuilt bool
	Metadata     map[string]string
}

// Payload renders the event as the JSON object sent over the wire.
func (e Event) Payload() map[string]any {
	artifacts := e.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	p := map[string]any{
		"project":       e.Project,
		"artifacts":     artifacts,
		"table_rebuilt": e.TableRebuilt,
	}
	if len(e.Metadata) > 0 {
		p["metadata"] = e.Metadata
	}
	return p
}

// EventFromReport builds the event for a finished run. Artifacts are the
// outputs of the compile steps that ran, in graph order.
func EventFromReport(name string, g *graph.Graph, r *executor.Report, metadata map[string]string) Event {
	ev := Event{
		Project:      name,
		TableRebuilt: r.Ran(graph.TableID),
		Metadata:     metadata,
	}
	for _, s := range g.Steps() {
		if r.Ran(s.ID) {
			ev.Artifacts = append(ev.Artifacts, s.Output().Path)
		}
	}
	return ev
}

// Notifier delivers rebuild events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// SocketIO emits events to a socket.io server.
type SocketIO struct {
	cfg project.NotifyConfig
}

// NewSocketIO returns a notifier for cfg.
func NewSocketIO(cfg *project.NotifyConfig) *SocketIO {
	c := *cfg
	if c.Path == "" {
		c.Path = project.DefaultNotifyPath
	}
	if c.Namespace == "" {
		c.Namespace = project.DefaultNotifyNamespace
	}
	if c.Event == "" {
		c.Event = project.DefaultNotifyEvent
	}
	if c.Timeout <= 0 {
		c.Timeout = project.DefaultNotifyTimeout
	}
	return &SocketIO{cfg: c}
}

// baseURL splits the configured URL into the manager address and the
// engine.io path. A path in the URL wins over the configured one.
func (s *SocketIO) baseURL() (string, string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("notify URL %q must be absolute", s.cfg.URL)
	}
	path := s.cfg.Path
	if u.Path != "" && u.Path != "/" {
		path = u.Path
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), path, nil
}

// Notify connects, emits ev once and disconnects. It returns once the event
// has been handed to the transport or the timeout expires.
func (s *SocketIO) Notify(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", s.cfg.URL, "event", s.cfg.Event)
	logger.Debug("Notifier started")
	defer logger.Debug("Notifier finished")

	base, path, err := s.baseURL()
	if err != nil {
		return err
	}

	var isConnected atomic.Bool
	done := make(chan error, 1)
	send := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	manager := socket.NewManager(base, opts)
	io := manager.Socket(s.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected", "namespace", s.cfg.Namespace, "sid", io.Id())
		if err := io.Emit(s.cfg.Event, ev.Payload()); err != nil {
			send(fmt.Errorf("failed to emit %s: %w", s.cfg.Event, err))
			return
		}
		send(nil)
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				send(fmt.Errorf("connection failed: %w", err))
				return
			}
		}
		send(fmt.Errorf("connection failed"))
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("timed out after connecting while emitting %q", s.cfg.Event)
		}
		return fmt.Errorf("timed out after %s while waiting for initial connection", s.cfg.Timeout)
	case err := <-done:
		if err == nil {
			logger.Info("📣 Rebuild notification sent.", "project", ev.Project, "artifacts", len(ev.Artifacts))
		}
		return err
	}
}

// Timeout returns the effective connection timeout.
func (s *SocketIO) Timeout() time.Duration {
	return s.cfg.Timeout
}
