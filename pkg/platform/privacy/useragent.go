package privacy

import (
	"strings"

	"github.com/mssola/useragent"
)

// SummarizeUserAgent reduces a raw User-Agent header to "Browser on OS"
// (e.g. "Chrome on Windows 10"), dropping version detail that helps fingerprinting.
// Returns "" for an empty header.
func SummarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			name = "bot"
		}
		return "bot: " + name
	}

	browser, _ := ua.Browser()
	os := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
