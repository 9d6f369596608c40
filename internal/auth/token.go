package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"londonstock/internal/config"
	"londonstock/internal/errors"
)

// BrokerClaims is the typed claim set carried by issued tokens. The broker
// identity lives in a dedicated claim; the registered subject carries the
// same value as a fallback for verifiers that only understand sub.
type BrokerClaims struct {
	BrokerID string `json:"broker_id"`
	jwt.RegisteredClaims
}

// Issuer mints signed, time-bounded bearer tokens for validated identities.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer creates an Issuer from JWT configuration. Key presence is
// enforced by config validation before this is reached.
func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      time.Duration(cfg.ExpiryMinutes) * time.Minute,
	}
}

// Issue mints a token for the given validated user. Returns the signed
// token string and its expiry time.
func (i *Issuer) Issue(user config.DemoUser) (string, time.Time, error) {
	now := time.Now().UTC()
	expiry := now.Add(i.ttl)

	claims := BrokerClaims{
		BrokerID: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return signed, expiry, nil
}

// Gate verifies bearer tokens and extracts the broker identity.
type Gate struct {
	key []byte
}

// NewGate creates a Gate sharing the issuer's symmetric key.
func NewGate(cfg config.JWTConfig) *Gate {
	return &Gate{key: []byte(cfg.Key)}
}

// VerifyToken parses and verifies a raw token string and returns the broker
// identity it carries. The identity comes from the broker_id claim, falling
// back to the subject when absent. Every failure mode (malformed, expired,
// bad signature, no identity) yields an AuthError with the same
// caller-facing meaning so that verification gives no claim-forgery oracle.
func (g *Gate) VerifyToken(raw string) (string, error) {
	if raw == "" {
		return "", errors.NewAuthError("missing token", nil)
	}

	claims := &BrokerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAuthError("unexpected signing method", nil)
		}
		return g.key, nil
	})
	if err != nil {
		return "", errors.NewAuthError("token verification failed", err)
	}
	if !token.Valid {
		return "", errors.NewAuthError("invalid token", nil)
	}

	brokerID := claims.BrokerID
	if brokerID == "" {
		brokerID = claims.Subject
	}
	if brokerID == "" {
		return "", errors.NewAuthError("no broker identity claim", nil)
	}
	return brokerID, nil
}
