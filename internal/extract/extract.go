// Package extract parses structured fragments out of free-form model output:
// fenced JSON blocks, language-tagged code blocks, and the summary/table
// split emitted by the sourcing task.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	// DataSeparator splits sourcing output into the user summary and the
	// final BOM table.
	DataSeparator = "---DATA_SEPARATOR---"

	// RateLimitSentinel is the in-band throttling signal the sourcing task
	// embeds in its output instead of raising an error.
	RateLimitSentinel = "RATE_LIMIT_HIT"
)

var jsonBlockPattern = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)\\s*```")

// JSONBlock extracts a fenced ```json block from text and parses it. If no
// fenced block is present the whole text is tried as bare JSON. Neither
// working is an error; empty data is never substituted silently.
func JSONBlock(text string) (map[string]any, error) {
	raw := text
	if match := jsonBlockPattern.FindStringSubmatch(text); match != nil {
		raw = match[1]
	}

	var parsed map[string]any
	if err := sonic.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("could not find a valid JSON block in output: %q", text)
	}
	return parsed, nil
}

// CodeBlock extracts a fenced code block tagged with the given language.
// Without a matching fence the raw text is returned trimmed, verbatim.
func CodeBlock(text, language string) string {
	pattern := regexp.MustCompile("(?i)```" + regexp.QuoteMeta(language) + "\\s*([\\s\\S]*?)\\s*```")
	if match := pattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

// SplitSourcing splits sourcing output at the data separator into the
// user-facing summary and the final BOM table. Exactly one separator must be
// present; anything else is a contract violation carrying the raw text.
func SplitSourcing(text string) (summary, table string, err error) {
	if strings.Count(text, DataSeparator) != 1 {
		return "", "", fmt.Errorf("sourcing crew failed to generate the correct output format. It returned: '%s'", text)
	}
	parts := strings.SplitN(text, DataSeparator, 2)
	return parts[0], parts[1], nil
}

// HasRateLimitSentinel reports whether the output carries the in-band
// throttling signal.
func HasRateLimitSentinel(text string) bool {
	return strings.Contains(text, RateLimitSentinel)
}

// StringField reads a string value from extracted JSON data, falling back to
// the given default when the key is absent or not a string.
func StringField(data map[string]any, key, fallback string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
