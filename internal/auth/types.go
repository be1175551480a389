package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPayload is returned when a widget payload lacks required fields.
var ErrInvalidPayload = errors.New("invalid identity payload")

// IdentityPayload is the data handed back by the Telegram login widget.
// Hash is computed by Telegram over the other fields and the bot token;
// it is never checked here, the backend does that.
type IdentityPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// Validate checks the payload shape before it is sent anywhere.
func (p IdentityPayload) Validate() error {
	switch {
	case p.ID == 0:
		return fmt.Errorf("%w: missing id", ErrInvalidPayload)
	case strings.TrimSpace(p.FirstName) == "":
		return fmt.Errorf("%w: missing first_name", ErrInvalidPayload)
	case p.Hash == "":
		return fmt.Errorf("%w: missing hash", ErrInvalidPayload)
	}
	return nil
}

// PayloadFromQuery parses the query string the widget appends in redirect mode.
func PayloadFromQuery(q url.Values) (IdentityPayload, error) {
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil {
		return IdentityPayload{}, fmt.Errorf("%w: bad id", ErrInvalidPayload)
	}

	var authDate int64
	if raw := q.Get("auth_date"); raw != "" {
		authDate, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return IdentityPayload{}, fmt.Errorf("%w: bad auth_date", ErrInvalidPayload)
		}
	}

	p := IdentityPayload{
		ID:        id,
		FirstName: q.Get("first_name"),
		LastName:  q.Get("last_name"),
		Username:  q.Get("username"),
		PhotoURL:  q.Get("photo_url"),
		AuthDate:  authDate,
		Hash:      q.Get("hash"),
	}
	return p, p.Validate()
}

// Profile is the display subset of an identity returned by the backend.
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date,omitempty"`
}

// DisplayName joins first and last name.
func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Handle returns "@username", or "" when the account has none.
func (p Profile) Handle() string {
	if p.Username == "" {
		return ""
	}
	return "@" + p.Username
}

// Origin records where a session came from.
type Origin string

const (
	OriginReal Origin = "real"
	OriginDemo Origin = "demo"
)

// ParseOrigin maps a stored value to an Origin. Anything unknown is demo,
// so it can never unlock actions reserved for real sessions.
func ParseOrigin(s string) Origin {
	if Origin(s) == OriginReal {
		return OriginReal
	}
	return OriginDemo
}

// SessionRecord is the browser-held pairing of a profile and a credential.
type SessionRecord struct {
	Profile    Profile
	Credential string
	Origin     Origin
	CreatedAt  time.Time
}

// IsDemo reports whether the record came from the demo fallback.
func (r *SessionRecord) IsDemo() bool {
	return r.Origin != OriginReal
}

// Outcome classifies how a login attempt ended.
type Outcome string

const (
	OutcomeAuthenticated Outcome = "authenticated"
	OutcomeRejected      Outcome = "rejected"
	OutcomeUnreachable   Outcome = "unreachable"
	OutcomeFailed        Outcome = "failed"
)

// Result is what a login attempt reports back to the page.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Message  string  `json:"message,omitempty"`
	Redirect string  `json:"redirect,omitempty"`
}

// OK reports whether the attempt produced a session.
func (r Result) OK() bool {
	return r.Outcome == OutcomeAuthenticated
}
