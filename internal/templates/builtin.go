package templates

// Builtin body templates keyed by hook name. Payload fields are guarded
// with "with" so missing keys render as nothing rather than "<no value>".
var builtinTemplates = map[string]string{
	"PreToolUse": `Starting {{.tool_name}}
{{with .tool_input}}{{with .file_path}}File: {{.}}
{{end}}{{with .command}}Command: {{.}}
{{end}}{{with .pattern}}Pattern: {{.}}
{{end}}{{with .description}}{{.}}
{{end}}{{end}}{{with .cwd}}Directory: {{.}}
{{end}}{{.timestamp}}`,

	"PostToolUse": `{{with .tool_response}}{{with .error}}{{$.tool_name}} failed

Error: {{.}}
{{else}}{{$.tool_name}} completed
{{end}}{{with .filePath}}File: {{.}}
{{end}}{{with .exit_code}}Exit code: {{.}}
{{end}}{{else}}{{.tool_name}} completed
{{end}}{{with .duration_ms}}Duration: {{.}}ms
{{end}}{{.timestamp}}`,

	"UserPromptSubmit": `New user prompt

{{with .prompt}}{{truncate . 200}}
{{end}}{{with .session_id}}Session: {{.}}
{{end}}{{with .cwd}}Directory: {{.}}
{{end}}{{.timestamp}}`,

	"SessionStart": `Session started
{{with .session_id}}Session: {{.}}
{{end}}{{with .cwd}}Directory: {{.}}
{{end}}{{with .source}}Source: {{.}}
{{end}}{{with .git_branch}}Branch: {{.}}
{{end}}{{.timestamp}}`,

	"Stop": `Session ended
{{with .session_id}}Session: {{.}}
{{end}}{{with .session_duration}}Duration: {{.}}
{{end}}{{with .tools_used}}Tools used: {{.}}
{{end}}{{with .files_modified}}Files modified: {{.}}
{{end}}{{with .error_count}}Errors: {{.}}
{{end}}{{.timestamp}}`,

	"Notification": `{{with .message}}{{.}}
{{end}}{{with .notification_type}}Type: {{.}}
{{end}}{{with .session_id}}Session: {{.}}
{{end}}{{.timestamp}}`,

	"SubagentStop": `Subagent finished
{{with .agent_name}}Agent: {{.}}
{{end}}{{with .session_id}}Session: {{.}}
{{end}}{{with .agent_duration}}Runtime: {{.}}
{{end}}{{with .tasks_completed}}Tasks completed: {{.}}
{{end}}{{.timestamp}}`,

	genericTemplate: `{{.hook_name}} event
{{range $key, $value := .fields}}{{$key}}: {{$value}}
{{end}}{{.timestamp}}`,
}

// Default notification priorities per hook (1=min .. 5=urgent).
var defaultPriorities = map[string]int{
	"SessionStart":     3,
	"Stop":             3,
	"PreToolUse":       2,
	"PostToolUse":      3,
	"UserPromptSubmit": 4,
	"Notification":     4,
	"SubagentStop":     2,
}

// Default ntfy tags per hook, using emoji shortcode names.
var defaultTags = map[string][]string{
	"PreToolUse":       {"wrench", "arrow_forward", "tools"},
	"PostToolUse":      {"white_check_mark", "tools", "finished"},
	"UserPromptSubmit": {"speech_balloon", "user", "input"},
	"SessionStart":     {"rocket", "new", "session"},
	"Stop":             {"checkered_flag", "end", "session"},
	"Notification":     {"bell", "alert"},
	"SubagentStop":     {"robot", "finished", "agent"},
}
