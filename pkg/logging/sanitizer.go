package logging

import (
	"regexp"
)

const (
	// MaxOutputLogLength is the maximum length of captured subprocess
	// output to log.
	MaxOutputLogLength = 2000
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match credential fields in JSON documents
	// Matches: "password": "xxx", "username": "xxx" (any spacing)
	jsonCredentialPattern = regexp.MustCompile(`(?i)"(password|username)"\s*:\s*"[^"]*"`)

	// Pattern to match key=value credentials in error text or tool output
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match user:pass@host URL credentials
	urlCredentialPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeError sanitizes error messages that might contain credential
// material. Use this before logging any error from the config writer or the
// sync subprocess.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize removes credential material from arbitrary text.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	sanitized := jsonCredentialPattern.ReplaceAllString(s, `"${1}": "`+RedactedText+`"`)
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = urlCredentialPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeOutput truncates and sanitizes captured subprocess output for
// logging. The sync tool's streams can be large and may echo config content.
func SanitizeOutput(output string) string {
	if output == "" {
		return ""
	}

	sanitized := output
	if len(sanitized) > MaxOutputLogLength {
		sanitized = sanitized[:MaxOutputLogLength] + "..."
	}
	return Sanitize(sanitized)
}
