package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"herald/internal/config"
	"herald/internal/hooks"
	"herald/internal/ipc"
	"herald/internal/logging"
	"herald/internal/ntfy"
	"herald/internal/queue"
	"herald/internal/templates"
)

// SenderFactory builds a delivery client for a task's resolved settings.
// The daemon's default factory caches clients per distinct server/auth
// combination; tests substitute fakes.
type SenderFactory func(taskCfg ipc.TaskConfig) (ntfy.Sender, error)

type clientFactory struct {
	mu      sync.Mutex
	http    *http.Client
	retry   ntfy.RetryPolicy
	clients map[string]*ntfy.Client
}

func newClientFactory(cfg *config.Config) *clientFactory {
	return &clientFactory{
		http: &http.Client{
			Timeout: time.Duration(cfg.Ntfy.TimeoutSeconds) * time.Second,
		},
		retry: ntfy.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			BaseDelay:    time.Duration(cfg.Retry.BaseDelayMillis) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxDelayMillis) * time.Millisecond,
			Multiplier:   cfg.Retry.BackoffMultiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		clients: make(map[string]*ntfy.Client),
	}
}

func (f *clientFactory) get(taskCfg ipc.TaskConfig) (ntfy.Sender, error) {
	key := taskCfg.ServerURL + "\x00" + taskCfg.AuthToken + "\x00" + taskCfg.SendFormat
	f.mu.Lock()
	defer f.mu.Unlock()
	if client, ok := f.clients[key]; ok {
		return client, nil
	}
	client, err := ntfy.New(ntfy.Options{
		ServerURL:  taskCfg.ServerURL,
		AuthToken:  taskCfg.AuthToken,
		SendFormat: taskCfg.SendFormat,
		Retry:      f.retry,
		HTTPClient: f.http,
	})
	if err != nil {
		return nil, err
	}
	f.clients[key] = client
	return client, nil
}

func (f *clientFactory) stats() []ntfy.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ntfy.Stats, 0, len(f.clients))
	for _, client := range f.clients {
		out = append(out, client.Stats())
	}
	return out
}

// worker is the single consumer of the delivery queue.
type worker struct {
	cfg        *config.Config
	queue      *queue.Queue
	engine     *templates.Engine
	senders    SenderFactory
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

func newWorker(cfg *config.Config, q *queue.Queue, engine *templates.Engine, senders SenderFactory, logger *slog.Logger) *worker {
	return &worker{
		cfg:        cfg,
		queue:      q,
		engine:     engine,
		senders:    senders,
		logger:     logging.NewComponentLogger(logger, "worker"),
		maxRetries: cfg.Daemon.MaxRetries,
		retryDelay: time.Duration(cfg.Daemon.RetryDelaySeconds) * time.Second,
	}
}

// loop consumes tasks until ctx is canceled. It does not drain; the daemon
// calls drain once producers have stopped.
func (w *worker) loop(ctx context.Context) {
	for {
		task, ok := w.queue.Dequeue(ctx)
		if !ok {
			return
		}
		w.process(task)
	}
}

// drain delivers every task still buffered in the queue.
func (w *worker) drain() {
	n := 0
	for {
		task, ok := w.queue.TryDequeue()
		if !ok {
			break
		}
		w.process(task)
		n++
	}
	if n > 0 {
		w.logger.Info("drained queued notifications before shutdown", logging.Int("count", n))
	}
}

// process delivers one task with the outer retry loop. Deliveries run on a
// background context so a shutdown does not abort a notification mid-send;
// the HTTP timeout and bounded retries keep the worst case short.
func (w *worker) process(task ipc.NotificationTask) {
	if !w.cfg.ShouldProcess(task.HookName, task.HookData) {
		w.logger.Debug("hook filtered out", logging.String("hook", task.HookName))
		return
	}

	msg, err := w.buildMessage(task)
	if err != nil {
		w.logger.Error("failed to prepare notification",
			logging.String("hook", task.HookName),
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_prepare_failed"),
			logging.String(logging.FieldImpact, "notification dropped"))
		return
	}

	sender, err := w.senders(task.NtfyConfig)
	if err != nil {
		w.logger.Error("failed to build notification client",
			logging.String("hook", task.HookName),
			logging.Error(err),
			logging.String(logging.FieldImpact, "notification dropped"))
		return
	}

	ctx := context.Background()
	for attempt := 0; ; attempt++ {
		err := sender.Send(ctx, msg)
		if err == nil {
			w.logger.Info("notification sent",
				logging.String("hook", task.HookName),
				logging.String("topic", msg.Topic))
			return
		}
		if !ntfy.IsRetryable(err) {
			w.logger.Error("notification rejected by server",
				logging.String("hook", task.HookName),
				logging.Error(err),
				logging.String(logging.FieldEventType, "notification_rejected"),
				logging.String(logging.FieldImpact, "notification dropped"))
			return
		}
		if attempt >= w.maxRetries {
			w.logger.Error("notification failed after retries",
				logging.String("hook", task.HookName),
				logging.Int("attempts", attempt+1),
				logging.Error(err),
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.String(logging.FieldImpact, "notification dropped"))
			return
		}
		w.logger.Warn("notification send failed, will retry",
			logging.String("hook", task.HookName),
			logging.Int("attempt", attempt+1),
			logging.Int("max_retries", w.maxRetries),
			logging.Error(err))
		time.Sleep(w.retryDelay)
	}
}

func (w *worker) buildMessage(task ipc.NotificationTask) (*ntfy.Message, error) {
	topic := task.NtfyConfig.Topic
	if topic == "" {
		return nil, fmt.Errorf("task %s has no topic", task.ID)
	}

	var data map[string]any
	var body, title string
	if err := json.Unmarshal([]byte(task.HookData), &data); err == nil {
		data = hooks.Enhance(task.HookName, data)
		body = w.engine.Render(task.HookName, data)
		title = templates.FormatTitle(task.HookName, data)
	} else {
		// Submission validates the payload, so this only happens for tasks
		// built by hand. Deliver something rather than nothing.
		body = fmt.Sprintf("Hook: %s\nData: %s", task.HookName, task.HookData)
		title = templates.FormatTitle(task.HookName, nil)
	}

	priority := task.NtfyConfig.Priority
	if priority == 0 {
		priority = templates.Priority(task.HookName)
	}
	tags := task.NtfyConfig.Tags
	if len(tags) == 0 {
		tags = templates.Tags(task.HookName)
	}

	return &ntfy.Message{
		Topic:    topic,
		Title:    title,
		Body:     body,
		Priority: priority,
		Tags:     tags,
	}, nil
}
