package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

const googleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type ExternalIdentity struct {
	Provider      string
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
}

// DisplayName falls back from the full name to the given name to the email local part.
func (e *ExternalIdentity) DisplayName() string {
	if n := strings.TrimSpace(e.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(strings.TrimSpace(e.GivenName + " " + e.FamilyName)); n != "" {
		return n
	}
	if i := strings.Index(e.Email, "@"); i > 0 {
		return e.Email[:i]
	}
	return "Learner"
}

type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

type GoogleVerifierConfig struct {
	ClientID     string
	DiscoveryURL string
	Timeout      time.Duration
}

type googleVerifier struct {
	log          *logger.Logger
	http         *resty.Client
	discoveryURL string
	clientID     string
	now          func() time.Time

	jwks          *jwksCache
	discoveryOnce sync.Once
	discoveryErr  error
}

func NewGoogleVerifier(log *logger.Logger, cfg GoogleVerifierConfig) (GoogleVerifier, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("GOOGLE_OIDC_CLIENT_ID is required")
	}
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = googleDiscoveryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := resty.New().SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json")
	return &googleVerifier{
		log:          log.With("service", "GoogleVerifier"),
		http:         hc,
		discoveryURL: cfg.DiscoveryURL,
		clientID:     cfg.ClientID,
		now:          time.Now,
		jwks:         newJWKSCache(hc),
	}, nil
}

type oidcDiscovery struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

func (v *googleVerifier) ensureDiscovery(ctx context.Context) error {
	v.discoveryOnce.Do(func() {
		var d oidcDiscovery
		res, err := v.http.R().SetContext(ctx).SetResult(&d).Get(v.discoveryURL)
		if err != nil {
			v.discoveryErr = err
			return
		}
		if res.IsError() {
			v.discoveryErr = fmt.Errorf("discovery request failed: %s", res.Status())
			return
		}
		if strings.TrimSpace(d.JWKSURI) == "" {
			v.discoveryErr = fmt.Errorf("discovery missing jwks_uri")
			return
		}
		v.jwks.setURL(d.JWKSURI)
	})
	return v.discoveryErr
}

func (v *googleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("id_token is empty")
	}
	if err := v.ensureDiscovery(ctx); err != nil {
		return nil, fmt.Errorf("oidc discovery error: %w", err)
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.clientID),
	)
	tok, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid id_token: %w", err)
	}
	if tok == nil || !tok.Valid {
		return nil, fmt.Errorf("invalid id_token")
	}

	iss, _ := claims["iss"].(string)
	if !containsString(googleIssuers, iss) {
		return nil, fmt.Errorf("issuer mismatch: %q", iss)
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("missing sub")
	}

	out := &ExternalIdentity{Provider: "google", Sub: sub}
	out.Email, _ = claims["email"].(string)
	out.EmailVerified = parseBool(claims["email_verified"])
	out.Name, _ = claims["name"].(string)
	out.GivenName, _ = claims["given_name"].(string)
	out.FamilyName, _ = claims["family_name"].(string)
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func parseBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	case float64:
		return x != 0
	default:
		return false
	}
}

// jwksCache holds RSA keys by kid and refetches when stale or on an unknown kid.
type jwksCache struct {
	http *resty.Client

	mu        sync.RWMutex
	url       string
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

func newJWKSCache(hc *resty.Client) *jwksCache {
	return &jwksCache{http: hc, keys: map[string]*rsa.PublicKey{}, ttl: 6 * time.Hour}
}

func (j *jwksCache) setURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.url = url
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := time.Since(j.fetchedAt) > j.ttl
	url := j.url
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("jwks url not set")
	}
	if err := j.refresh(ctx, url); err != nil {
		if key != nil {
			return key, nil
		}
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	key = j.keys[kid]
	if key == nil {
		return nil, fmt.Errorf("kid not found in jwks: %s", kid)
	}
	return key, nil
}

func (j *jwksCache) refresh(ctx context.Context, url string) error {
	res, err := j.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("jwks fetch failed: %s", res.Status())
	}
	var set jwkSet
	if err := json.Unmarshal(res.Body(), &set); err != nil {
		return err
	}
	next := map[string]*rsa.PublicKey{}
	for _, k := range set.Keys {
		if k.Kty != "RSA" || strings.TrimSpace(k.Kid) == "" {
			continue
		}
		if pub, err := rsaFromModExp(k.N, k.E); err == nil {
			next[k.Kid] = pub
		}
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}
	j.mu.Lock()
	j.keys = next
	j.fetchedAt = time.Now()
	j.mu.Unlock()
	return nil
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
