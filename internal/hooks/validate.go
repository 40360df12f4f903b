package hooks

import (
	"fmt"
	"strings"
)

const (
	defaultMaxDepth     = 10
	defaultMaxStringLen = 1 << 20
)

// Field names that look like credentials are rejected outright so they
// never leave the machine inside a notification.
var forbiddenFields = map[string]struct{}{
	"password":    {},
	"secret":      {},
	"token":       {},
	"api_key":     {},
	"private_key": {},
}

// Required payload fields per hook name.
var requiredFields = map[string][]string{
	"PreTask":  {"task_id"},
	"PostTask": {"task_id"},
}

// Validator checks hook payloads against structural and security limits.
type Validator struct {
	maxDepth     int
	maxStringLen int
}

// NewValidator returns a validator with the default limits.
func NewValidator() *Validator {
	return &Validator{
		maxDepth:     defaultMaxDepth,
		maxStringLen: defaultMaxStringLen,
	}
}

// Validate checks a hook event payload. A nil payload is treated as an
// empty object.
func (v *Validator) Validate(hookName string, data map[string]any) error {
	if strings.TrimSpace(hookName) == "" {
		return fmt.Errorf("hook name is required")
	}
	for _, field := range requiredFields[hookName] {
		if _, ok := data[field]; !ok {
			return fmt.Errorf("hook %s requires field %q", hookName, field)
		}
	}
	return v.walk(data, 0)
}

func (v *Validator) walk(value any, depth int) error {
	if depth > v.maxDepth {
		return fmt.Errorf("payload exceeds maximum nesting depth of %d", v.maxDepth)
	}
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			if _, bad := forbiddenFields[strings.ToLower(key)]; bad {
				return fmt.Errorf("field %q is not allowed in hook payloads", key)
			}
			if err := v.walk(child, depth+1); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range typed {
			if err := v.walk(child, depth+1); err != nil {
				return err
			}
		}
	case string:
		if len(typed) > v.maxStringLen {
			return fmt.Errorf("string field of %d bytes exceeds limit of %d", len(typed), v.maxStringLen)
		}
	}
	return nil
}
