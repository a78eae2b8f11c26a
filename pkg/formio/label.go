package formio

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// CleanLabel strips markup from a component label. Blank labels fall back to
// the key.
func CleanLabel(label, key string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return key
	}
	cleaned := html.UnescapeString(labelSanitizer().Sanitize(trimmed))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return key
	}
	return cleaned
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return labelPolicy
}
