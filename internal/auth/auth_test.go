package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"londonstock/internal/config"
)

var testJWT = config.JWTConfig{
	Key:           "test-signing-key-0123456789abcdef",
	Issuer:        "londonstock",
	Audience:      "londonstock-api",
	ExpiryMinutes: 60,
}

var demoUsers = []config.DemoUser{
	{Username: "broker1", Password: "Password123!"},
	{Username: "broker2", Password: "SecurePassword!"},
}

func TestValidateMatchesConfiguredUser(t *testing.T) {
	v := NewValidator(demoUsers)

	user, ok := v.Validate("broker1", "Password123!")
	if !ok {
		t.Fatal("expected broker1 to validate")
	}
	if user.Username != "broker1" {
		t.Errorf("got username %q, want broker1", user.Username)
	}
}

func TestValidateUsernameCaseInsensitive(t *testing.T) {
	v := NewValidator(demoUsers)

	for _, name := range []string{"BROKER1", "Broker1", "bRoKeR1"} {
		if _, ok := v.Validate(name, "Password123!"); !ok {
			t.Errorf("username %q should validate case-insensitively", name)
		}
	}
}

func TestValidateRejectsBadCredentials(t *testing.T) {
	v := NewValidator(demoUsers)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "broker1", "wrong"},
		{"password case mismatch", "broker1", "password123!"},
		{"unknown user", "broker3", "Password123!"},
		{"empty password", "broker1", ""},
		{"empty username", "", "Password123!"},
		{"swapped credentials", "broker1", "SecurePassword!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := v.Validate(tc.username, tc.password); ok {
				t.Errorf("Validate(%q, %q) should fail", tc.username, tc.password)
			}
		})
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer(testJWT)
	gate := NewGate(testJWT)

	token, expiry, err := issuer.Issue(demoUsers[0])
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if until := time.Until(expiry); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry %v not about 60 minutes out", until)
	}

	brokerID, err := gate.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if brokerID != "broker1" {
		t.Errorf("got broker %q, want broker1", brokerID)
	}
}

func TestIssuedTokensCarryUniqueIDs(t *testing.T) {
	issuer := NewIssuer(testJWT)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, _, err := issuer.Issue(demoUsers[0])
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}

		claims := &BrokerClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			t.Fatalf("parsing issued token: %v", err)
		}
		if claims.ID == "" {
			t.Fatal("issued token has no jti claim")
		}
		if _, err := uuid.Parse(claims.ID); err != nil {
			t.Errorf("jti %q is not a UUID: %v", claims.ID, err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate jti %q", claims.ID)
		}
		seen[claims.ID] = true
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	gate := NewGate(testJWT)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := gate.VerifyToken(raw); err == nil {
			t.Errorf("VerifyToken(%q) should fail", raw)
		}
	}
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	issuer := NewIssuer(testJWT)
	token, _, err := issuer.Issue(demoUsers[0])
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherCfg := testJWT
	otherCfg.Key = "another-signing-key-fedcba9876543210"
	gate := NewGate(otherCfg)

	if _, err := gate.VerifyToken(token); err == nil {
		t.Error("token signed with a different key should not verify")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	now := time.Now().UTC()
	claims := BrokerClaims{
		BrokerID: "broker1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "broker1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Key))
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	gate := NewGate(testJWT)
	if _, err := gate.VerifyToken(token); err == nil {
		t.Error("expired token should not verify")
	}
}

func TestVerifyTokenFallsBackToSubject(t *testing.T) {
	// Token with a subject but no broker_id claim.
	claims := jwt.RegisteredClaims{
		Subject:   "broker2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Key))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	gate := NewGate(testJWT)
	brokerID, err := gate.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if brokerID != "broker2" {
		t.Errorf("got broker %q, want broker2 from subject fallback", brokerID)
	}
}

func TestVerifyTokenRejectsNoIdentity(t *testing.T) {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Key))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	gate := NewGate(testJWT)
	if _, err := gate.VerifyToken(token); err == nil {
		t.Error("token with no identity claim should not verify")
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	issuer := NewIssuer(testJWT)
	token, _, err := issuer.Issue(demoUsers[0])
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	gate := NewGate(testJWT)
	if _, err := gate.VerifyToken(tampered); err == nil {
		t.Error("tampered token should not verify")
	}
}
