package session

import (
	"encoding/gob"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"nexus/cmd/identity"
	"nexus/cmd/security/token"
)

// Flash kinds understood by the portal templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind string
	Msg  string
}

func init() {
	gob.Register(Flash{})
}

const (
	keyRole   = "role"
	keyID     = "id"
	keyEmail  = "email"
	keyName   = "name"
	keyAuthAt = "auth_at"
)

// Manager stores the logged-in principal in a signed and encrypted cookie.
type Manager struct {
	store *sessions.CookieStore
	name  string
	ttl   time.Duration
	now   func() time.Time
}

// NewManager constructs a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h, err := token.DeriveKey(cfg.Secret, token.PurposeCookieAuth)
	if err != nil {
		return nil, err
	}
	e, err := token.DeriveKey(cfg.Secret, token.PurposeCookieEnc)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(h, e)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.Secure,
	}
	store.MaxAge(store.Options.MaxAge)

	return &Manager{store: store, name: cfg.CookieName, ttl: cfg.TTL, now: time.Now}, nil
}

// get never fails: the cookie store hands back a fresh session for an
// undecodable cookie.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, m.name)
	if s == nil {
		s = sessions.NewSession(m.store, m.name)
		opts := *m.store.Options
		s.Options = &opts
		s.IsNew = true
	}
	return s
}

// Load returns the principal stored in the request's cookie. Sessions older
// than the TTL are reported as absent.
func (m *Manager) Load(r *http.Request) (Principal, bool) {
	return m.principal(m.get(r))
}

func (m *Manager) principal(s *sessions.Session) (Principal, bool) {
	role, _ := s.Values[keyRole].(string)
	id, _ := s.Values[keyID].(string)
	authAt, _ := s.Values[keyAuthAt].(int64)
	if id == "" || authAt == 0 {
		return Principal{}, false
	}

	r, err := identity.ParseRole(role)
	if err != nil {
		return Principal{}, false
	}

	at := time.Unix(authAt, 0).UTC()
	if !m.now().Before(at.Add(m.ttl)) {
		return Principal{}, false
	}

	email, _ := s.Values[keyEmail].(string)
	name, _ := s.Values[keyName].(string)
	return Principal{Role: r, ID: id, Email: email, Name: name, AuthenticatedAt: at}, true
}

// Establish replaces any existing login with p.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, p Principal) error {
	if !p.Authenticated() {
		return errors.New("session: establish without principal")
	}
	if p.AuthenticatedAt.IsZero() {
		p.AuthenticatedAt = m.now().UTC()
	}

	s := m.get(r)
	flashes := s.Flashes()
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Values[keyRole] = p.Role.String()
	s.Values[keyID] = p.ID
	s.Values[keyEmail] = p.Email
	s.Values[keyName] = p.Name
	s.Values[keyAuthAt] = p.AuthenticatedAt.Unix()
	for _, f := range flashes {
		if fl, ok := f.(Flash); ok {
			s.AddFlash(fl)
		}
	}
	s.Options.MaxAge = int(m.ttl / time.Second)
	return s.Save(r, w)
}

// Clear logs the request out. Pending flashes survive so the next page can
// show them.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	for _, k := range []string{keyRole, keyID, keyEmail, keyName, keyAuthAt} {
		delete(s.Values, k)
	}
	return s.Save(r, w)
}

// Destroy removes the session cookie entirely.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	s.Values = map[any]any{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// AddFlash queues a message for the next page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, kind, msg string) error {
	s := m.get(r)
	s.AddFlash(Flash{Kind: kind, Msg: msg})
	return s.Save(r, w)
}

// Flashes pops all queued messages. It must be called before the response
// body is written.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := m.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	_ = s.Save(r, w)
	return out
}
