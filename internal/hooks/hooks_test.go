package hooks

import (
	"strings"
	"testing"
)

func TestValidateRejectsForbiddenFields(t *testing.T) {
	v := NewValidator()
	cases := []map[string]any{
		{"password": "hunter2"},
		{"API_KEY": "abc"},
		{"tool_input": map[string]any{"secret": "s"}},
		{"items": []any{map[string]any{"token": "t"}}},
	}
	for i, data := range cases {
		if err := v.Validate("PreToolUse", data); err == nil {
			t.Errorf("case %d: forbidden field accepted", i)
		}
	}
}

func TestValidateDepthLimit(t *testing.T) {
	v := NewValidator()
	deep := map[string]any{}
	current := deep
	for i := 0; i < 15; i++ {
		next := map[string]any{}
		current["nested"] = next
		current = next
	}
	if err := v.Validate("Stop", deep); err == nil {
		t.Error("overly nested payload accepted")
	}
	if err := v.Validate("Stop", map[string]any{"a": map[string]any{"b": "c"}}); err != nil {
		t.Errorf("shallow payload rejected: %v", err)
	}
}

func TestValidateStringLimit(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("Stop", map[string]any{"blob": strings.Repeat("x", 1<<20+1)}); err == nil {
		t.Error("oversized string accepted")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("PreTask", map[string]any{}); err == nil {
		t.Error("PreTask without task_id accepted")
	}
	if err := v.Validate("PreTask", map[string]any{"task_id": "t-1"}); err != nil {
		t.Errorf("valid PreTask rejected: %v", err)
	}
	if err := v.Validate("", map[string]any{}); err == nil {
		t.Error("empty hook name accepted")
	}
}

func TestEnhanceInfersSuccess(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want bool
	}{
		{"error in response", map[string]any{"tool_response": map[string]any{"error": "boom"}}, false},
		{"failed status", map[string]any{"tool_response": map[string]any{"status": "failed"}}, false},
		{"ok status", map[string]any{"tool_response": map[string]any{"status": "ok"}}, true},
		{"zero exit code", map[string]any{"tool_response": map[string]any{"exit_code": float64(0)}}, true},
		{"nonzero exit code", map[string]any{"tool_response": map[string]any{"exit_code": float64(2)}}, false},
		{"explicit success", map[string]any{"tool_response": map[string]any{"success": false}}, false},
		{"no indicators", map[string]any{"tool_response": map[string]any{}}, true},
		{"top level error", map[string]any{"error": "nope"}, false},
		{"empty payload", map[string]any{}, true},
	}
	for _, tc := range cases {
		got := Enhance("PostToolUse", tc.data)
		if success, ok := got["success"].(bool); !ok || success != tc.want {
			t.Errorf("%s: success = %v, want %v", tc.name, got["success"], tc.want)
		}
	}
}

func TestEnhanceKeepsExplicitSuccess(t *testing.T) {
	data := map[string]any{
		"success":       false,
		"tool_response": map[string]any{"status": "ok"},
	}
	got := Enhance("PostToolUse", data)
	if got["success"] != false {
		t.Errorf("explicit success overwritten: %v", got["success"])
	}
}

func TestEnhanceAddsTimestamp(t *testing.T) {
	got := Enhance("Stop", nil)
	if _, ok := got["timestamp"]; !ok {
		t.Error("timestamp not added")
	}
	kept := Enhance("Stop", map[string]any{"timestamp": int64(42)})
	if kept["timestamp"] != int64(42) {
		t.Errorf("existing timestamp replaced: %v", kept["timestamp"])
	}
}

func TestEnhanceShortensSessionID(t *testing.T) {
	got := Enhance("SessionStart", map[string]any{"session_id": "6f1c2a9e-1d34-4b8f-9c21-aaaa0000bbbb"})
	if got["session_id"] != "6f1c2a9e" {
		t.Errorf("session_id = %v, want 6f1c2a9e", got["session_id"])
	}
	short := Enhance("SessionStart", map[string]any{"session_id": "abc"})
	if short["session_id"] != "abc" {
		t.Errorf("short session_id changed: %v", short["session_id"])
	}
}
