// Package session holds the authenticated session handed to the core by
// the external browser-driven authentication flow: an opaque set of
// cookie name/value pairs plus a fixed user-agent string. The core never
// obtains or refreshes these itself.
package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// Cookie is one name/value pair captured from a logged-in browser
// session. Browser exports carry more fields (domain, path, expiry);
// only name and value matter for replaying requests.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the read-only capability shared across all concurrent
// fetches. Safe for unsynchronized concurrent use after construction.
type Session struct {
	cookies   []Cookie
	userAgent string
}

// New builds a session from an explicit cookie set.
func New(cookies []Cookie, userAgent string) *Session {
	return &Session{cookies: cookies, userAgent: userAgent}
}

// Load reads a browser-exported cookie JSON file (an array of cookie
// objects) and builds a session around it.
func Load(path, userAgent string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie file: %w", err)
	}

	return New(cookies, userAgent), nil
}

// Anonymous returns a session with no cookies, for hosts that do not
// gate access.
func Anonymous(userAgent string) *Session {
	return New(nil, userAgent)
}

// Apply attaches the session cookies and user agent to a request.
func (s *Session) Apply(req *http.Request) {
	for _, c := range s.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
}

// Len returns the number of cookies held.
func (s *Session) Len() int {
	return len(s.cookies)
}
