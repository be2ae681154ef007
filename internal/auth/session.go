package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionProvider supplies who is acting and the credential to present to
// the backend.
type SessionProvider interface {
	Identity() model.Identity
	BearerToken() string
}

// StaticSession is a fixed identity, e.g. a guest or a test user.
type StaticSession struct {
	ID    model.Identity
	Token string
}

func (s StaticSession) Identity() model.Identity {
	if s.ID == nil {
		return model.Guest{}
	}
	return s.ID
}

func (s StaticSession) BearerToken() string { return s.Token }

// Claims is the payload of a storefront session token.
type Claims struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Document string `json:"document,omitempty"`
	StoreID  int64  `json:"storeId,omitempty"`
	jwt.RegisteredClaims
}

// TokenSession derives the identity from a bearer JWT. When secret is empty
// the signature is not checked; the backend remains the one validating it.
type TokenSession struct {
	mu       sync.RWMutex
	token    string
	identity model.Identity
	secret   []byte
}

func NewTokenSession(secret string) *TokenSession {
	return &TokenSession{secret: []byte(secret), identity: model.Guest{}}
}

// SignIn replaces the session credential. On error the session is left
// unchanged.
func (s *TokenSession) SignIn(token string) error {
	id, err := s.decode(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.identity = id
	s.mu.Unlock()
	return nil
}

func (s *TokenSession) SignOut() {
	s.mu.Lock()
	s.token = ""
	s.identity = model.Guest{}
	s.mu.Unlock()
}

func (s *TokenSession) Identity() model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *TokenSession) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *TokenSession) decode(token string) (model.Identity, error) {
	claims := &Claims{}
	var err error
	if len(s.secret) == 0 {
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	} else {
		_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return IdentityFromClaims(claims)
}

// IdentityFromClaims maps the token's user type onto the identity variants.
func IdentityFromClaims(c *Claims) (model.Identity, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, c.Subject)
	}

	switch model.Role(c.Type) {
	case model.RoleCustomer:
		return model.Customer{ID: id, Name: c.Name, Email: c.Email, Document: c.Document}, nil
	case model.RoleStoreManager:
		return model.StoreManager{ID: id, Name: c.Name, Email: c.Email, StoreID: c.StoreID}, nil
	case model.RoleCourier:
		return model.Courier{ID: id, Name: c.Name, Email: c.Email}, nil
	default:
		return nil, fmt.Errorf("%w: unknown user type %q", ErrInvalidToken, c.Type)
	}
}
