// Package authtoken issues and verifies the operator bearer tokens that
// protect the admin API. Tokens are EdDSA-signed JWTs.
package authtoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
	"github.com/battledinghy/battledinghy/internal/id"
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer     string `env:"BATTLE_DINGHY_TOKEN_ISSUER"`
	Audience   string `env:"BATTLE_DINGHY_TOKEN_AUDIENCE"`
	PublicKey  string `env:"BATTLE_DINGHY_TOKEN_PUBLIC_KEY"`
	PrivateKey string `env:"BATTLE_DINGHY_TOKEN_PRIVATE_KEY"`
}

// VerifierConfig defines how operator tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// IssuerConfig defines how operator tokens are minted.
type IssuerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	Now      func() time.Time
}

// Claims captures a validated operator token.
type Claims struct {
	Issuer    string
	Audience  []string
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
}

// LoadVerifierConfigFromEnv reads token verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	raw, err := parseTokenEnv()
	if err != nil {
		return VerifierConfig{}, err
	}
	if raw.PublicKey == "" {
		return VerifierConfig{}, fmt.Errorf("BATTLE_DINGHY_TOKEN_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(raw.PublicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   raw.Issuer,
		Audience: raw.Audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// LoadIssuerConfigFromEnv reads token minting configuration.
func LoadIssuerConfigFromEnv(now func() time.Time) (IssuerConfig, error) {
	raw, err := parseTokenEnv()
	if err != nil {
		return IssuerConfig{}, err
	}
	if raw.PrivateKey == "" {
		return IssuerConfig{}, fmt.Errorf("BATTLE_DINGHY_TOKEN_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(raw.PrivateKey)
	if err != nil {
		return IssuerConfig{}, fmt.Errorf("decode token private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return IssuerConfig{}, fmt.Errorf("token private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return IssuerConfig{
		Issuer:   raw.Issuer,
		Audience: raw.Audience,
		Key:      ed25519.PrivateKey(keyBytes),
		Now:      now,
	}, nil
}

func parseTokenEnv() (tokenEnv, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return tokenEnv{}, fmt.Errorf("parse token env: %w", err)
	}
	raw.Issuer = strings.TrimSpace(raw.Issuer)
	raw.Audience = strings.TrimSpace(raw.Audience)
	raw.PublicKey = strings.TrimSpace(raw.PublicKey)
	raw.PrivateKey = strings.TrimSpace(raw.PrivateKey)
	if raw.Issuer == "" {
		return tokenEnv{}, fmt.Errorf("BATTLE_DINGHY_TOKEN_ISSUER is required")
	}
	if raw.Audience == "" {
		return tokenEnv{}, fmt.Errorf("BATTLE_DINGHY_TOKEN_AUDIENCE is required")
	}
	return raw, nil
}

// operatorClaims is the internal claims type used for JWT parsing.
type operatorClaims struct {
	jwt.RegisteredClaims
}

// Issue mints a signed operator token for the given subject.
func Issue(subject string, ttl time.Duration, cfg IssuerConfig) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	if len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("token issuer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := cfg.Now().UTC()
	claims := operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates an operator token and returns its claims.
func Verify(token string, cfg VerifierConfig) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("token verifier is not configured")
	}

	var parsed operatorClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token audience mismatch")
	}
	if parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token jti is required")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeTokenExpired, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "token not active yet")
	}

	claims := Claims{
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		Subject:   parsed.Subject,
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeTokenInvalid, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeTokenInvalid, "token alg is invalid")
	}
	return apperrors.New(apperrors.CodeTokenInvalid, "token is invalid")
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
