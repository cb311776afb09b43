package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"event-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// Claims are the JWT claims accepted from callers. UserID carries the legacy
// "id" claim issued by older clients; "sub" wins when both are present.
type Claims struct {
	UserID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) subject() string {
	if s := domain.CanonicalSubject(c.Subject); s != "" {
		return s
	}
	return domain.CanonicalSubject(c.UserID)
}

// Authenticator turns a bearer credential into a trusted identity.
// It holds only the shared secret and a clock, so a single value can serve
// concurrent requests.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Authenticator)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

func NewAuthenticator(secret []byte, opts ...Option) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	a := &Authenticator{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Authenticate verifies credential and returns the caller identity.
// An empty credential yields domain.ErrUnauthenticated; anything that fails
// parsing, signature, expiry or subject checks yields domain.ErrInvalidToken.
func (a *Authenticator) Authenticate(credential string) (*domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(credential, &claims, a.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	subject := claims.subject()
	if subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrInvalidToken)
	}

	return &domain.Identity{Subject: subject}, nil
}

func (a *Authenticator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return a.secret, nil
}

// Issue signs an HS256 token for subject that expires after ttl.
func (a *Authenticator) Issue(subject string, ttl time.Duration) (string, error) {
	subject = domain.CanonicalSubject(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// CredentialFromHeader extracts the credential from an Authorization header
// value. Both "Bearer <token>" and a bare token are accepted.
// A header holding only the scheme counts as no credential.
func CredentialFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, strings.TrimSpace(bearerPrefix)) {
		return ""
	}
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return strings.TrimSpace(header)
}
