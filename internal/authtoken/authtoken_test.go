package authtoken

import (
	"crypto/ed25519"
	"testing"
	"time"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func testNow() time.Time {
	return time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC)
}

func testConfigs(t *testing.T) (IssuerConfig, VerifierConfig) {
	t.Helper()
	pub, priv := testKeyPair(t)
	issuer := IssuerConfig{
		Issuer:   "battledinghy",
		Audience: "admin",
		Key:      priv,
		Now:      testNow,
	}
	verifier := VerifierConfig{
		Issuer:   "battledinghy",
		Audience: "admin",
		Key:      pub,
		Now:      testNow,
	}
	return issuer, verifier
}

func TestIssueAndVerify(t *testing.T) {
	issuerCfg, verifierCfg := testConfigs(t)

	token, err := Issue("operator", time.Hour, issuerCfg)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Verify(token, verifierCfg)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "operator" {
		t.Fatalf("subject = %q, want operator", claims.Subject)
	}
	if claims.JWTID == "" {
		t.Fatal("claims carry no jti")
	}
	if !claims.ExpiresAt.Equal(testNow().Add(time.Hour)) {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt, testNow().Add(time.Hour))
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuerCfg, verifierCfg := testConfigs(t)

	token, err := Issue("operator", time.Hour, issuerCfg)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifierCfg.Now = func() time.Time { return testNow().Add(2 * time.Hour) }
	_, err = Verify(token, verifierCfg)
	if apperrors.CodeOf(err) != apperrors.CodeTokenExpired {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeTokenExpired)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuerCfg, verifierCfg := testConfigs(t)
	otherPub, _ := testKeyPair(t)
	verifierCfg.Key = otherPub

	token, err := Issue("operator", time.Hour, issuerCfg)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = Verify(token, verifierCfg)
	if apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeTokenInvalid)
	}
}

func TestVerifyClaimMismatches(t *testing.T) {
	issuerCfg, verifierCfg := testConfigs(t)

	token, err := Issue("operator", time.Hour, issuerCfg)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrongIssuer := verifierCfg
	wrongIssuer.Issuer = "someone-else"
	if _, err := Verify(token, wrongIssuer); apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
		t.Fatalf("issuer mismatch err = %v, want %s", err, apperrors.CodeTokenInvalid)
	}

	wrongAudience := verifierCfg
	wrongAudience.Audience = "metrics"
	if _, err := Verify(token, wrongAudience); apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
		t.Fatalf("audience mismatch err = %v, want %s", err, apperrors.CodeTokenInvalid)
	}
}

func TestVerifyGarbage(t *testing.T) {
	_, verifierCfg := testConfigs(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := Verify(token, verifierCfg); apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
			t.Fatalf("Verify(%q) err = %v, want %s", token, err, apperrors.CodeTokenInvalid)
		}
	}
}

func TestIssueValidation(t *testing.T) {
	issuerCfg, _ := testConfigs(t)

	if _, err := Issue("", time.Hour, issuerCfg); err == nil {
		t.Fatal("empty subject accepted")
	}
	if _, err := Issue("operator", 0, issuerCfg); err == nil {
		t.Fatal("zero ttl accepted")
	}
	issuerCfg.Key = nil
	if _, err := Issue("operator", time.Hour, issuerCfg); err == nil {
		t.Fatal("missing key accepted")
	}
}
