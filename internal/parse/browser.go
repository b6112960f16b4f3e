package parse

import "strings"

// Browser extracts the browser family from a User-Agent string.
//
// The order matters: Edge and Opera embed "Chrome" in their UA, and Chrome
// embeds "Safari", so the more specific tokens are checked first.
func Browser(userAgent string) string {
	if userAgent == "" {
		return "Unknown"
	}

	switch {
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Edg"):
		return "Edge"
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Opera"), strings.Contains(userAgent, "OPR"):
		return "Opera"
	}
	return "Other"
}
