package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type jwksFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	f := &jwksFixture{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   "https://accounts.google.com",
			"jwks_uri": f.server.URL + "/certs",
		})
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		pub := key.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestGoogleVerifier(t *testing.T) {
	f := newJWKSFixture(t)
	v, err := NewGoogleVerifier(logger.Nop(), GoogleVerifierConfig{
		ClientID:     "client-1",
		DiscoveryURL: f.server.URL + "/.well-known/openid-configuration",
	})
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}
	ctx := context.Background()
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":            "https://accounts.google.com",
			"aud":            "client-1",
			"sub":            "g-123",
			"email":          "ada@example.com",
			"email_verified": true,
			"name":           "Ada Lovelace",
			"iat":            now.Unix(),
			"exp":            now.Add(time.Hour).Unix(),
		}
	}

	ident, err := v.VerifyIDToken(ctx, f.sign(t, base()))
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if ident.Sub != "g-123" || !ident.EmailVerified || ident.DisplayName() != "Ada Lovelace" {
		t.Fatalf("identity: %+v", ident)
	}

	cases := map[string]func(jwt.MapClaims){
		"wrong audience": func(c jwt.MapClaims) { c["aud"] = "someone-else" },
		"wrong issuer":   func(c jwt.MapClaims) { c["iss"] = "https://evil.example" },
		"expired":        func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Hour).Unix() },
		"missing sub":    func(c jwt.MapClaims) { delete(c, "sub") },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if _, err := v.VerifyIDToken(ctx, f.sign(t, c)); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
	if _, err := v.VerifyIDToken(ctx, ""); err == nil {
		t.Fatalf("empty token: want error")
	}
}

func TestExternalIdentityDisplayName(t *testing.T) {
	cases := []struct {
		in   ExternalIdentity
		want string
	}{
		{ExternalIdentity{Name: "Ada L"}, "Ada L"},
		{ExternalIdentity{GivenName: "Ada", FamilyName: "L"}, "Ada L"},
		{ExternalIdentity{Email: "ada@example.com"}, "ada"},
		{ExternalIdentity{}, "Learner"},
	}
	for _, tc := range cases {
		if got := tc.in.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName(%+v): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}
