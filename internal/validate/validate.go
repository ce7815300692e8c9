package validate

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ      = regexp.MustCompile(`^[\p{L}\p{M}\p{N} _'\-]{1,50}$`)
	reMobile = regexp.MustCompile(`^\+?[0-9][0-9 -]{5,19}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: letters in any script, digits, spaces and _'-,
// cut to 50 characters.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = strings.TrimSpace(string(r[:50]))
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive integer resource identifier from a path or form value.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Name collapses runs of whitespace and accepts 1-100 characters.
func Name(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || utf8.RuneCountInString(s) > 100 {
		return "", false
	}
	return s, true
}

func Mobile(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reMobile.MatchString(s)
}

// Password requires 8-72 bytes (bcrypt's limit) with at least one letter and one digit.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
			hasLetter = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Price parses a positive amount with at most two decimals.
func Price(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > 1_000_000 || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// WebURL accepts absolute http(s) links only.
func WebURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SafeRedirect reports whether next may be used as a post-login redirect.
// Relative paths on this site are accepted; absolute URLs only when their
// host is in allowed.
func SafeRedirect(next string, allowed []string) (string, bool) {
	next = strings.TrimSpace(next)
	if next == "" || strings.ContainsAny(next, "\\\x00\r\n") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil {
		return "", false
	}
	if u.Scheme == "" && u.Host == "" {
		// "//evil.com" parses with a host, so reaching here means a plain path.
		if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
			return "", false
		}
		return next, true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range allowed {
		if host == h {
			return next, true
		}
	}
	return "", false
}
