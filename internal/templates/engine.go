package templates

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"
)

const genericTemplate = "generic"

const timestampLayout = "2006-01-02 15:04:05"

// Engine renders hook payloads into notification bodies.
type Engine struct {
	templates map[string]*template.Template
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"truncate": func(v any, limit int) string {
			s := fmt.Sprint(v)
			runes := []rune(s)
			if len(runes) <= limit {
				return s
			}
			return string(runes[:limit]) + "..."
		},
	}
}

// New parses the builtin templates.
func New() (*Engine, error) {
	engine := &Engine{templates: make(map[string]*template.Template, len(builtinTemplates))}
	for name, text := range builtinTemplates {
		tmpl, err := template.New(name).Funcs(funcMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse builtin template %s: %w", name, err)
		}
		engine.templates[name] = tmpl
	}
	return engine, nil
}

// Register installs a custom body template for a hook, replacing any
// builtin of the same name.
func (e *Engine) Register(name, text string) error {
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("parse custom template %s: %w", name, err)
	}
	e.templates[name] = tmpl
	return nil
}

// Render produces the notification body for a hook event. Unknown hooks
// use the generic template; rendering failures degrade to a plain listing
// so a notification always goes out.
func (e *Engine) Render(hookName string, data map[string]any) string {
	context := make(map[string]any, len(data)+2)
	for k, v := range data {
		context[k] = v
	}
	if _, ok := context["timestamp"]; !ok {
		context["timestamp"] = time.Now().Format(timestampLayout)
	}
	context["hook_name"] = hookName

	tmpl, ok := e.templates[hookName]
	if !ok {
		tmpl = e.templates[genericTemplate]
		fields := make(map[string]any, len(data))
		for k, v := range data {
			if k != "timestamp" {
				fields[k] = v
			}
		}
		context = map[string]any{
			"hook_name": hookName,
			"timestamp": context["timestamp"],
			"fields":    fields,
		}
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, context); err != nil {
		return fallback(hookName, data)
	}
	return strings.TrimSpace(buf.String())
}

// Names lists the hooks with builtin or registered templates, sorted.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		if name != genericTemplate {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// BuiltinSource returns the builtin body template text for a hook.
func BuiltinSource(name string) (string, bool) {
	text, ok := builtinTemplates[name]
	return text, ok
}

func fallback(hookName string, data map[string]any) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("Hook: %s", hookName)
	}
	return fmt.Sprintf("Hook: %s\nData: %s", hookName, raw)
}

// FormatTitle builds the notification title for a hook event.
func FormatTitle(hookName string, data map[string]any) string {
	switch hookName {
	case "PreToolUse":
		if tool := stringField(data, "tool_name"); tool != "" {
			return "Starting " + tool
		}
		return "Tool Starting"
	case "PostToolUse":
		tool := stringField(data, "tool_name")
		if tool == "" {
			tool = "Tool"
		}
		if response, ok := data["tool_response"].(map[string]any); ok {
			if errText := stringField(response, "error"); errText != "" {
				return tool + " Failed"
			}
		}
		return tool + " Complete"
	case "UserPromptSubmit":
		return "New User Prompt"
	case "SessionStart":
		return "Session Started"
	case "Stop":
		return "Session Ended"
	case "Notification":
		return "System Alert"
	case "SubagentStop":
		return "Agent Complete"
	default:
		return hookName
	}
}

// Priority returns the default ntfy priority for a hook.
func Priority(hookName string) int {
	if p, ok := defaultPriorities[hookName]; ok {
		return p
	}
	return 3
}

// Tags returns the default ntfy tags for a hook, nil when none apply.
func Tags(hookName string) []string {
	return defaultTags[hookName]
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
