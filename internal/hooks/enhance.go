package hooks

import (
	"strings"
	"time"
)

// sessionIDDisplayLen is how much of a session UUID survives into the
// notification body.
const sessionIDDisplayLen = 8

// Enhance enriches a hook payload in place and returns it. PostToolUse
// events gain an inferred "success" flag when the sender omitted one,
// every payload gets a unix "timestamp" if it arrived without one, and
// session ids are shortened for display. The payload only feeds message
// rendering at this point, so the truncation loses nothing.
func Enhance(hookName string, data map[string]any) map[string]any {
	if data == nil {
		data = make(map[string]any)
	}
	if hookName == "PostToolUse" {
		if _, ok := data["success"]; !ok {
			data["success"] = inferSuccess(data)
		}
	}
	if _, ok := data["timestamp"]; !ok {
		data["timestamp"] = time.Now().Unix()
	}
	if id, ok := data["session_id"].(string); ok && len(id) > sessionIDDisplayLen {
		data["session_id"] = id[:sessionIDDisplayLen]
	}
	return data
}

func inferSuccess(data map[string]any) bool {
	if response, ok := data["tool_response"].(map[string]any); ok {
		return successFromResponse(response)
	}
	// Without a tool response, only explicit error markers count.
	if err, ok := data["error"]; ok && err != nil {
		return false
	}
	if exc, ok := data["exception"]; ok && exc != nil {
		return false
	}
	return true
}

func successFromResponse(response map[string]any) bool {
	if err, ok := response["error"]; ok && err != nil {
		return false
	}
	if status, ok := response["status"].(string); ok {
		switch strings.ToLower(status) {
		case "success", "ok", "completed":
			return true
		case "error", "failed", "failure":
			return false
		}
		return true
	}
	if code, ok := response["exit_code"].(float64); ok {
		return code == 0
	}
	if success, ok := response["success"].(bool); ok {
		return success
	}
	if output, ok := response["output"]; ok && output != nil {
		if s, isString := output.(string); !isString || strings.TrimSpace(s) != "" {
			return true
		}
	}
	return true
}
