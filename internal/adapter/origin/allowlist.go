// Package origin decides which browser origins may call the API and open the
// websocket feed.
package origin

import (
	"net/http"
	"net/url"
	"strings"
)

// Wildcard allows every origin.
const Wildcard = "*"

// Allowlist holds origins in scheme://host[:port] form.
type Allowlist []string

func (l Allowlist) AllowsAll() bool {
	for _, o := range l {
		if strings.TrimSpace(o) == Wildcard {
			return true
		}
	}
	return false
}

// Allows reports whether origin is listed. Comparison ignores case and a
// trailing slash.
func (l Allowlist) Allows(origin string) bool {
	origin = normalize(origin)
	if origin == "" {
		return false
	}
	for _, o := range l {
		o = strings.TrimSpace(o)
		if o == Wildcard || normalize(o) == origin {
			return true
		}
	}
	return false
}

// CheckRequest is a websocket.Upgrader CheckOrigin. Requests without an Origin
// header come from non-browser clients and pass; same-origin requests pass
// even when the list is empty.
func (l Allowlist) CheckRequest(r *http.Request) bool {
	o := r.Header.Get("Origin")
	if o == "" {
		return true
	}
	if l.Allows(o) {
		return true
	}
	u, err := url.Parse(o)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func normalize(o string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(o), "/"))
}
