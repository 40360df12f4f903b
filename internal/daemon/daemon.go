package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"herald/internal/config"
	"herald/internal/hooks"
	"herald/internal/ipc"
	"herald/internal/logging"
	"herald/internal/ntfy"
	"herald/internal/queue"
	"herald/internal/templates"
)

// Daemon owns the IPC server, the delivery queue, and the worker for one
// scope. It implements ipc.Dispatcher.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	queue     *queue.Queue
	validator *hooks.Validator
	worker    *worker
	clients   *clientFactory

	started      time.Time
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New builds a daemon for the given configuration. The logger is used for
// all components; pass a logger from logging.New.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	engine, err := templates.New()
	if err != nil {
		return nil, err
	}
	for name, text := range cfg.Templates {
		if err := engine.Register(name, text); err != nil {
			return nil, err
		}
	}

	q := queue.New(cfg.Daemon.QueueCapacity)
	factory := newClientFactory(cfg)
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		queue:     q,
		validator: hooks.NewValidator(),
		worker:    newWorker(cfg, q, engine, factory.get, logger),
		clients:   factory,
	}, nil
}

// Run starts the daemon and blocks until a shutdown request, SIGINT,
// SIGTERM, or context cancellation. Buffered tasks are delivered before it
// returns.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.cancel = cancel

	g := newGuard(d.cfg.Scope(), d.logger)
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	server, err := ipc.NewServer(runCtx, d.cfg.Scope().SocketPath(), d, d.logger)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	d.started = time.Now()
	server.Serve()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		d.worker.loop(runCtx)
	}()

	d.logger.Info("daemon started",
		logging.String("socket", server.Path()),
		logging.Int("pid", os.Getpid()),
		logging.Int("queue_capacity", d.cfg.Daemon.QueueCapacity))

	select {
	case sig := <-sigCh:
		d.logger.Info("received signal, stopping daemon", logging.String("signal", sig.String()))
		cancel()
	case <-runCtx.Done():
		d.logger.Info("shutdown requested, stopping daemon")
	}

	// Stop producers first, then drain what is left so accepted tasks are
	// not lost.
	server.Close()
	d.queue.Close()
	<-workerDone
	d.worker.drain()

	d.logger.Info("daemon stopped")
	return nil
}

// Shutdown requests daemon termination. Safe to call any number of times,
// from any goroutine.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
	})
}

// Dispatch implements ipc.Dispatcher.
func (d *Daemon) Dispatch(_ context.Context, req ipc.Request) ipc.Response {
	if err := req.Validate(); err != nil {
		return ipc.Errorf("%v", err)
	}
	switch req.Type {
	case ipc.MsgSubmit:
		return d.handleSubmit(*req.Task)
	case ipc.MsgPing:
		return ipc.OK()
	case ipc.MsgStatus:
		return ipc.StatusOf(d.queue.Pending(), time.Since(d.started))
	case ipc.MsgShutdown:
		d.logger.Info("shutdown requested over ipc")
		d.Shutdown()
		return ipc.OK()
	case ipc.MsgReload:
		// Restart the daemon to pick up configuration changes.
		return ipc.Errorf("reload not implemented")
	default:
		return ipc.Errorf("unknown request type %q", req.Type)
	}
}

func (d *Daemon) handleSubmit(task ipc.NotificationTask) ipc.Response {
	var data map[string]any
	if task.HookData != "" {
		if err := json.Unmarshal([]byte(task.HookData), &data); err != nil {
			return ipc.Errorf("invalid hook data: %v", err)
		}
	}
	if err := d.validator.Validate(task.HookName, data); err != nil {
		return ipc.Errorf("%v", err)
	}
	if task.HookData == "" {
		task.HookData = "{}"
	}

	d.applyDefaults(&task)

	if err := d.queue.Enqueue(task); err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueClosed):
			return ipc.Errorf("daemon is shutting down")
		case errors.Is(err, queue.ErrQueueFull):
			return ipc.Errorf("notification queue is full")
		default:
			return ipc.Errorf("enqueue notification: %v", err)
		}
	}
	d.logger.Debug("notification queued",
		logging.String("hook", task.HookName),
		logging.String("task_id", task.ID),
		logging.Int("queue_size", d.queue.Pending()))
	return ipc.OK()
}

// applyDefaults completes a submitted task so the worker never needs the
// daemon configuration to deliver it.
func (d *Daemon) applyDefaults(task *ipc.NotificationTask) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	cfg := &task.NtfyConfig
	if cfg.ServerURL == "" {
		cfg.ServerURL = d.cfg.Ntfy.ServerURL
	}
	if cfg.Topic == "" {
		cfg.Topic = d.cfg.TopicFor(task.HookName)
	}
	if cfg.Priority == 0 {
		cfg.Priority = d.cfg.PriorityFor(task.HookName)
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = d.cfg.Ntfy.DefaultTags
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = d.cfg.Ntfy.AuthToken
	}
	if cfg.SendFormat == "" {
		cfg.SendFormat = d.cfg.Ntfy.SendFormat
	}
}

// ClientStats snapshots the delivery statistics of every notification
// client the worker has used so far.
func (d *Daemon) ClientStats() []ntfy.Stats {
	if d.clients == nil {
		return nil
	}
	return d.clients.stats()
}
