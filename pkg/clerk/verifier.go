package clerk

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	ErrNoKey        = errors.New("clerk: no verification key configured")
	ErrUnknownKey   = errors.New("clerk: unknown signing key")
	ErrUnauthorized = errors.New("clerk: party not authorized")
)

// Claims are the session-token claims the API relies on.
type Claims struct {
	SessionID string `json:"sid,omitempty"`
	Azp       string `json:"azp,omitempty"`
	OrgID     string `json:"org_id,omitempty"`
	OrgRole   string `json:"org_role,omitempty"`
	jwt.RegisteredClaims
}

type VerifierConfig struct {
	PEMKey            string // networkless verification when set
	JWKSURL           string
	SecretKey         string // sent to the JWKS endpoint
	Issuer            string
	AuthorizedParties []string
	HTTPClient        *http.Client
}

// Verifier checks Clerk session tokens (RS256).
type Verifier struct {
	cfg    VerifierConfig
	static *rsa.PublicKey
	log    *zap.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// minRefetch bounds how often an unknown kid triggers a JWKS fetch.
const minRefetch = time.Minute

func NewVerifier(cfg VerifierConfig, log *zap.Logger) (*Verifier, error) {
	v := &Verifier{cfg: cfg, log: log, keys: map[string]*rsa.PublicKey{}}
	if cfg.HTTPClient == nil {
		v.cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.PEMKey != "" {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PEMKey))
		if err != nil {
			return nil, fmt.Errorf("clerk: parse CLERK_JWT_KEY: %w", err)
		}
		v.static = k
	}
	return v, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if v.static != nil {
			return v.static, nil
		}
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("clerk: token without subject")
	}
	if claims.Azp != "" && len(v.cfg.AuthorizedParties) > 0 && !slices.Contains(v.cfg.AuthorizedParties, claims.Azp) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, claims.Azp)
	}
	return claims, nil
}

func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fresh := time.Since(v.fetchedAt) < minRefetch
	v.mu.RUnlock()
	if ok {
		return k, nil
	}
	if fresh {
		return nil, ErrUnknownKey
	}
	if err := v.refresh(ctx); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, ErrUnknownKey
}

func (v *Verifier) refresh(ctx context.Context) error {
	if v.cfg.JWKSURL == "" {
		return ErrNoKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	if v.cfg.SecretKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.cfg.SecretKey)
	}
	body, err := do(v.cfg.HTTPClient, req)
	if err != nil {
		return fmt.Errorf("clerk: fetch jwks: %w", err)
	}

	keys := map[string]*rsa.PublicKey{}
	gjson.GetBytes(body, "keys").ForEach(func(_, k gjson.Result) bool {
		if k.Get("kty").String() != "RSA" {
			return true
		}
		pub, err := rsaFromJWK(k.Get("n").String(), k.Get("e").String())
		if err != nil {
			v.log.Warn("skipping malformed jwk", zap.String("kid", k.Get("kid").String()), zap.Error(err))
			return true
		}
		keys[k.Get("kid").String()] = pub
		return true
	})

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	v.log.Debug("jwks refreshed", zap.Int("keys", len(keys)))
	return nil
}

func rsaFromJWK(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(eb)
	if len(nb) == 0 || !exp.IsInt64() || exp.Int64() < 3 {
		return nil, errors.New("invalid rsa parameters")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}
