// Package clientmeta derives the audit client signal (IP, browser label,
// OS label) from request headers.
package clientmeta

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// UnknownLabel is recorded when nothing about the client can be derived.
const UnknownLabel = "Unknown"

// Meta is the per-request client signal attached to access-log rows.
type Meta struct {
	IP       string
	WebAgent string
	// RawUserAgent keeps the unparsed header for the log metadata even
	// when WebAgent carries a parsed browser label.
	RawUserAgent string
	OS           string
}

// browserTokens is checked in order: vendor forks before their rendering
// engine base, so a Chromium-derived browser is labeled before the generic
// Chrome fallback. The exact order only affects labeling, not correctness.
var browserTokens = []struct {
	token string
	name  string
}{
	{"brave", "Brave"},
	{"edg", "Edge"},
	{"opr", "Opera"},
	{"opera", "Opera"},
	{"firefox", "Firefox"},
}

// FromRequest resolves the client signal with header precedence:
// x-browser-name, sec-ch-ua, user-agent, then the Unknown sentinel.
func FromRequest(r *http.Request) Meta {
	ua := strings.TrimSpace(r.Header.Get("User-Agent"))
	m := Meta{
		IP:           clientIP(r),
		RawUserAgent: truncate(ua, 255),
		OS:           osLabel(ua),
	}

	if explicit := strings.TrimSpace(r.Header.Get("X-Browser-Name")); explicit != "" {
		m.WebAgent = truncate(explicit, 255)
		return m
	}
	if b := browserLabel(r.Header.Get("Sec-CH-UA")); b != "" {
		m.WebAgent = b
		return m
	}
	if ua != "" {
		if b := browserLabel(ua); b != "" {
			m.WebAgent = b
		} else {
			m.WebAgent = truncate(ua, 255)
		}
		return m
	}
	m.WebAgent = UnknownLabel
	return m
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "0.0.0.0"
}

func browserLabel(raw string) string {
	s := strings.ToLower(raw)
	if s == "" {
		return ""
	}
	for _, bt := range browserTokens {
		if strings.Contains(s, bt.token) {
			return bt.name
		}
	}
	// Safari only when no Chromium token is present; every Chromium UA
	// also claims Safari.
	if strings.Contains(s, "safari") && !strings.Contains(s, "chrom") {
		return "Safari"
	}
	if strings.Contains(s, "chrom") {
		return "Chrome"
	}
	return ""
}

func osLabel(ua string) string {
	s := strings.ToLower(ua)
	switch {
	case s == "":
		return UnknownLabel
	case strings.Contains(s, "windows"):
		return "Windows"
	case strings.Contains(s, "android"):
		return "Android"
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipad"), strings.Contains(s, "ios"):
		return "iOS"
	case strings.Contains(s, "mac os"), strings.Contains(s, "macintosh"):
		return "macOS"
	case strings.Contains(s, "linux"):
		return "Linux"
	default:
		return UnknownLabel
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary so the stored value stays valid UTF-8
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
