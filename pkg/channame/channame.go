// Package channame derives remote channel names from course and group metadata.
//
// Names must be deterministic: restoring a course from backup recomputes the
// same channel name, and therefore the same channel identity, as the original.
package channame

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyChannelName is returned when sanitization leaves nothing of a name.
var ErrEmptyChannelName = errors.New("channel name is empty after sanitization")

// DefaultInvalidPattern matches characters the remote server rejects in
// channel names.
const DefaultInvalidPattern = `[^a-z0-9._\-]`

var (
	placeholderRegex = regexp.MustCompile(`\{\$a->([a-zA-Z0-9_]+)\}`)
	leftoverRegex    = regexp.MustCompile(`\{[^}]*\}`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// Format substitutes {$a->key} placeholders in template with vars[key],
// strips any placeholder syntax left unsubstituted, and lower-cases the
// result. Identical inputs always yield identical output.
func Format(template string, vars map[string]string) string {
	name := placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderRegex.FindStringSubmatch(match)[1]
		return vars[key]
	})
	name = leftoverRegex.ReplaceAllString(name, "")
	return strings.ToLower(name)
}

// Sanitize replaces whitespace runs and any character matching invalidPattern
// with underscores. An empty invalidPattern falls back to
// DefaultInvalidPattern. Returns ErrEmptyChannelName if nothing survives.
func Sanitize(name string, invalidPattern string) (string, error) {
	if invalidPattern == "" {
		invalidPattern = DefaultInvalidPattern
	}
	invalidRegex, err := regexp.Compile(invalidPattern)
	if err != nil {
		return "", err
	}

	sanitized := whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), "_")
	sanitized = invalidRegex.ReplaceAllString(sanitized, "_")
	if strings.Trim(sanitized, "_") == "" {
		return "", ErrEmptyChannelName
	}
	return sanitized, nil
}

// FormatAndSanitize is the composition used when provisioning a channel.
func FormatAndSanitize(template string, vars map[string]string, invalidPattern string) (string, error) {
	return Sanitize(Format(template, vars), invalidPattern)
}
