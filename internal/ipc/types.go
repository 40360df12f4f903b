package ipc

import (
	"fmt"
	"time"
)

// TaskConfig carries the ntfy delivery settings resolved for a single task.
// Tasks are self-contained: the worker never consults global configuration
// to deliver one.
type TaskConfig struct {
	ServerURL  string   `json:"server_url"`
	Topic      string   `json:"topic"`
	Priority   int      `json:"priority,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	AuthToken  string   `json:"auth_token,omitempty"`
	SendFormat string   `json:"send_format"`
}

// NotificationTask is one hook event queued for delivery. HookData stays an
// opaque JSON string so the wire format is stable regardless of hook shape.
type NotificationTask struct {
	ID          string     `json:"id,omitempty"`
	HookName    string     `json:"hook_name"`
	HookData    string     `json:"hook_data"`
	RetryCount  int        `json:"retry_count"`
	CreatedAt   time.Time  `json:"created_at"`
	NtfyConfig  TaskConfig `json:"ntfy_config"`
	ProjectPath string     `json:"project_path,omitempty"`
}

// MessageType tags a request variant.
type MessageType string

const (
	MsgSubmit   MessageType = "submit"
	MsgPing     MessageType = "ping"
	MsgShutdown MessageType = "shutdown"
	MsgReload   MessageType = "reload"
	MsgStatus   MessageType = "status"
)

// Request is the client-to-daemon message sum type. Exactly one variant per
// wire message; only Submit carries a payload.
type Request struct {
	Type MessageType       `json:"type"`
	Task *NotificationTask `json:"task,omitempty"`
}

// Validate rejects requests whose tag and payload disagree.
func (r Request) Validate() error {
	switch r.Type {
	case MsgSubmit:
		if r.Task == nil {
			return fmt.Errorf("submit request requires a task")
		}
		if r.Task.HookName == "" {
			return fmt.Errorf("submit request requires a hook name")
		}
	case MsgPing, MsgShutdown, MsgReload, MsgStatus:
		if r.Task != nil {
			return fmt.Errorf("%s request must not carry a task", r.Type)
		}
	default:
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	return nil
}

// ResponseType tags a response variant.
type ResponseType string

const (
	RespOK     ResponseType = "ok"
	RespError  ResponseType = "error"
	RespStatus ResponseType = "status"
)

// StatusInfo reports daemon runtime state for the Status request.
type StatusInfo struct {
	QueueSize     int    `json:"queue_size"`
	IsRunning     bool   `json:"is_running"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// Response is the daemon-to-client message sum type.
type Response struct {
	Type   ResponseType `json:"type"`
	Error  string       `json:"error,omitempty"`
	Status *StatusInfo  `json:"status,omitempty"`
}

// Validate rejects responses whose tag and payload disagree.
func (r Response) Validate() error {
	switch r.Type {
	case RespOK:
		if r.Error != "" || r.Status != nil {
			return fmt.Errorf("ok response must not carry a payload")
		}
	case RespError:
		if r.Error == "" {
			return fmt.Errorf("error response requires a message")
		}
	case RespStatus:
		if r.Status == nil {
			return fmt.Errorf("status response requires status info")
		}
	default:
		return fmt.Errorf("unknown response type %q", r.Type)
	}
	return nil
}

// OK is the canonical success response.
func OK() Response {
	return Response{Type: RespOK}
}

// Errorf builds an error response.
func Errorf(format string, args ...any) Response {
	return Response{Type: RespError, Error: fmt.Sprintf(format, args...)}
}

// StatusOf builds a status response.
func StatusOf(queueSize int, uptime time.Duration) Response {
	seconds := uint64(0)
	if uptime > 0 {
		seconds = uint64(uptime / time.Second)
	}
	return Response{Type: RespStatus, Status: &StatusInfo{
		QueueSize:     queueSize,
		IsRunning:     true,
		UptimeSeconds: seconds,
	}}
}
