package ember

import (
	"bytes"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SameSite is the value of a cookie's SameSite attribute.
type SameSite string

// SameSite values recognized by String.
const (
	SameSiteDefault SameSite = ""
	SameSiteStrict  SameSite = "Strict"
	SameSiteLax     SameSite = "Lax"
	SameSiteNone    SameSite = "None"
)

// Cookie is an HTTP cookie, per RFC 6265.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
}

// reset clears c for reuse from a pool.
func (c *Cookie) reset() {
	c.Name = ""
	c.Value = ""
	c.Path = ""
	c.Domain = ""
	c.Expires = time.Time{}
	c.MaxAge = 0
	c.HTTPOnly = false
	c.Secure = false
	c.SameSite = SameSiteDefault
}

// String serializes c into a single Set-Cookie header value, with
// attributes in the fixed canonical order: Path, Domain, Expires, Max-Age,
// HttpOnly, Secure, SameSite. A Max-Age of -1 is a deletion directive and
// is emitted verbatim as "Max-Age=-1".
func (c *Cookie) String() string {
	if !validCookieName(c.Name) {
		return ""
	}

	var buf bytes.Buffer

	buf.WriteString(strings.NewReplacer("\r", "-", "\n", "-").Replace(c.Name))
	buf.WriteByte('=')

	v := sanitize(c.Value, validCookieValueByte)
	if strings.IndexByte(v, ' ') >= 0 || strings.IndexByte(v, ',') >= 0 {
		v = `"` + v + `"`
	}
	buf.WriteString(v)

	if len(c.Path) > 0 {
		buf.WriteString("; Path=")
		buf.WriteString(sanitize(c.Path, func(b byte) bool {
			return 0x20 <= b && b < 0x7f && b != ';'
		}))
	}

	if validCookieDomain(c.Domain) {
		d := c.Domain
		if d[0] == '.' {
			d = d[1:]
		}
		buf.WriteString("; Domain=")
		buf.WriteString(d)
	}

	if c.Expires.Year() >= 1601 {
		buf.WriteString("; Expires=")
		buf.WriteString(c.Expires.UTC().Format(http.TimeFormat))
	}

	if c.MaxAge != 0 {
		buf.WriteString("; Max-Age=")
		buf.WriteString(strconv.Itoa(c.MaxAge))
	}

	if c.HTTPOnly {
		buf.WriteString("; HttpOnly")
	}

	if c.Secure {
		buf.WriteString("; Secure")
	}

	switch c.SameSite {
	case SameSiteStrict, SameSiteLax, SameSiteNone:
		buf.WriteString("; SameSite=")
		buf.WriteString(string(c.SameSite))
	}

	return buf.String()
}

// ParseCookieHeader parses the value of a request's Cookie header into a
// sequence of Cookies: it splits on ';', trims surrounding whitespace of
// each pair, splits the first '=' into name/value, and silently ignores
// malformed pairs (no '=', or an empty name).
func ParseCookieHeader(header string) []*Cookie {
	var cookies []*Cookie

	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}

		name := strings.TrimSpace(pair[:eq])
		value := strings.TrimSpace(pair[eq+1:])
		if name == "" {
			continue
		}

		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		cookies = append(cookies, &Cookie{Name: name, Value: value})
	}

	return cookies
}

// validCookieName reports whether n is a valid cookie-name token.
func validCookieName(n string) bool {
	return n != "" && strings.IndexFunc(n, func(r rune) bool {
		return !strings.ContainsRune(
			"!#$%&'*+-."+
				"0123456789"+
				"ABCDEFGHIJKLMNOPQRSTUVWXYZ"+
				"^_`"+
				"abcdefghijklmnopqrstuvwxyz"+
				"|~",
			r,
		)
	}) < 0
}

// validCookieValueByte reports whether b may appear unescaped in a cookie
// value.
func validCookieValueByte(b byte) bool {
	return 0x20 <= b && b < 0x7f && b != '"' && b != ';' && b != '\\'
}

// validCookieDomain reports whether d is a valid cookie Domain attribute.
func validCookieDomain(d string) bool {
	if l := len(d); l == 0 || l > 255 {
		return false
	}

	if ip := net.ParseIP(d); ip != nil && !strings.Contains(d, ":") {
		return true
	}

	if d[0] == '.' {
		d = d[1:]
	}

	ok := false
	last := byte('.')
	partLen := 0
	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
			ok = true
			partLen++
		case '0' <= c && c <= '9':
			partLen++
		case c == '-':
			if last == '.' {
				return false
			}
			partLen++
		case c == '.':
			if last == '.' || last == '-' {
				return false
			}
			if partLen > 63 || partLen == 0 {
				return false
			}
			partLen = 0
		default:
			return false
		}
		last = c
	}

	if last == '-' || partLen > 63 {
		return false
	}

	return ok
}

// sanitize returns s unchanged if every byte satisfies valid, otherwise a
// copy with invalid bytes dropped.
func sanitize(s string, valid func(byte) bool) string {
	ok := true
	for i := 0; i < len(s); i++ {
		if !valid(s[i]) {
			ok = false
			break
		}
	}
	if ok {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if b := s[i]; valid(b) {
			buf = append(buf, b)
		}
	}
	return string(buf)
}
