package infrastructure

import (
	"net/url"
	"strings"
)

// ShellEscape quotes s for display in a shell command line.
// Only used when logging; exec.Command receives arguments unquoted.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsFunc(s, isShellSpecialChar) {
		return s
	}
	// close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as a copy-pasteable command line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

// RedactCommand is ShellEscapeCommand with URL query strings and header
// blocks masked, so signed media URLs and tokens stay out of the logs
func RedactCommand(binary string, args ...string) string {
	redacted := make([]string, len(args))
	for i, arg := range args {
		switch {
		case i > 0 && args[i-1] == "-headers":
			redacted[i] = "<headers>"
		default:
			redacted[i] = redactURL(arg)
		}
	}
	return ShellEscapeCommand(binary, redacted...)
}

// redactURL replaces the query of an http(s) URL with a marker
func redactURL(arg string) string {
	if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil || u.RawQuery == "" {
		return arg
	}
	u.RawQuery = "redacted"
	return u.String()
}

// isShellSpecialChar returns true if the character has special meaning in shell
func isShellSpecialChar(c rune) bool {
	switch c {
	case ' ', '\t', '\'', '"', '$', '`', '\\', '!', '*', '?', '[', ']',
		'(', ')', '{', '}', '|', ';', '<', '>', '&', '~', '#', '%', '\n', '\r':
		return true
	default:
		return false
	}
}
