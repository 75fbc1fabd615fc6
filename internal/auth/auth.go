// Package auth implements registration, login and session management on top
// of the protected store. Users and sessions live in their own store so that
// the generic data endpoints can never touch them directly.
package auth

import (
	"fmt"

	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/model"
	"github.com/lostpaws/pawserver/internal/store"
)

// Collections and well-known fields in the protected store.
const (
	CollectionUsers    = "users"
	CollectionSessions = "sessions"

	FieldPassword       = "password"
	FieldHashedPassword = "hashedPassword"
	FieldAccessToken    = "accessToken"
	FieldUserID         = "userId"
)

// Auth owns the protected store and the token secret.
type Auth struct {
	protected *store.Store
	identity  string
	secret    string
}

// New returns an auth service. identity names the field that uniquely
// identifies a user, usually "email".
func New(protected *store.Store, identity, secret string) *Auth {
	return &Auth{protected: protected, identity: identity, secret: secret}
}

// Users exposes the protected store for read-only lookups, such as resolving
// relation loads against the users collection.
func (a *Auth) Users() *store.Store {
	return a.protected
}

// Register creates a user from the request body, which must carry non-empty
// string values for the identity field and "password". Any other fields are
// stored on the profile as-is. The plaintext password is never stored; the
// response is the new user with an accessToken attached.
func (a *Auth) Register(body model.Record) (model.Record, error) {
	identity, _ := body[a.identity].(string)
	password, _ := body[FieldPassword].(string)
	if identity == "" || password == "" {
		return nil, errs.Request("Missing fields")
	}

	if existing, err := a.protected.Query(CollectionUsers, model.Record{a.identity: identity}); err == nil && len(existing) > 0 {
		return nil, errs.Conflict(fmt.Sprintf("A user with the same %s already exists", a.identity))
	}

	data := body.Clone()
	delete(data, FieldPassword)
	data[FieldHashedPassword] = hashPassword(a.secret, password)

	user := a.protected.Add(CollectionUsers, data)
	token, err := a.saveSession(user.ID())
	if err != nil {
		return nil, err
	}
	return withToken(user, token), nil
}

// Login checks the supplied credentials against the users collection and
// opens a new session. Exactly one user may match the identity value and its
// stored digest must match the supplied password; any mismatch yields the
// same error so callers cannot probe which part was wrong.
func (a *Auth) Login(body model.Record) (model.Record, error) {
	identity, _ := body[a.identity].(string)
	password, _ := body[FieldPassword].(string)

	matches, err := a.protected.Query(CollectionUsers, model.Record{a.identity: identity})
	if err != nil || len(matches) != 1 {
		return nil, errs.Credential("Login or password don't match")
	}
	user := matches[0]
	stored, _ := user[FieldHashedPassword].(string)
	if !digestEqual(stored, hashPassword(a.secret, password)) {
		return nil, errs.Credential("Login or password don't match")
	}

	token, err := a.saveSession(user.ID())
	if err != nil {
		return nil, err
	}
	return withToken(user, token), nil
}

// Logout closes the caller's session. It requires a resolved user; a request
// without a valid token has no session to close.
func (a *Auth) Logout(user model.Record) error {
	if user == nil {
		return errs.Credential("User session does not exist")
	}
	sessions, err := a.protected.Query(CollectionSessions, model.Record{FieldUserID: user.ID()})
	if err != nil || len(sessions) == 0 {
		return errs.Credential("User session does not exist")
	}
	_, err = a.protected.Delete(CollectionSessions, sessions[0].ID())
	return err
}

// Resolve maps an access token back to its user. The token must carry a
// valid signature, point at a live session, and match the token stored on
// that session; any failure is reported uniformly.
func (a *Auth) Resolve(token string) (model.Record, error) {
	invalid := errs.Credential("Invalid access token")

	sessionID, err := parseToken(a.secret, token)
	if err != nil {
		return nil, invalid
	}
	session, err := a.protected.Get(CollectionSessions, sessionID)
	if err != nil {
		return nil, invalid
	}
	if stored, _ := session[FieldAccessToken].(string); stored != token {
		return nil, invalid
	}
	userID, _ := session[FieldUserID].(string)
	user, err := a.protected.Get(CollectionUsers, userID)
	if err != nil {
		return nil, invalid
	}
	return user, nil
}

// saveSession records a session for a user and returns its access token.
// The token embeds the session id, so the session is created first and the
// token written back onto it.
func (a *Auth) saveSession(userID string) (string, error) {
	session := a.protected.Add(CollectionSessions, model.Record{FieldUserID: userID})
	token, err := issueToken(a.secret, session.ID())
	if err != nil {
		return "", err
	}
	if _, err := a.protected.Merge(CollectionSessions, session.ID(), model.Record{FieldAccessToken: token}); err != nil {
		return "", err
	}
	return token, nil
}

// withToken returns the user's public shape: profile plus accessToken, minus
// the password digest.
func withToken(user model.Record, token string) model.Record {
	out := user.Clone()
	delete(out, FieldHashedPassword)
	out[FieldAccessToken] = token
	return out
}

// Public strips the credential fields from a user record for responses that
// echo the profile without opening a session.
func Public(user model.Record) model.Record {
	out := user.Clone()
	delete(out, FieldHashedPassword)
	return out
}
