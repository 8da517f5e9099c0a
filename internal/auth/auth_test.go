package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashVerify(t *testing.T) {
	hash, err := Hash("motdepasse123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := Verify("motdepasse123", hash)
	if err != nil || !ok {
		t.Fatalf("vérification: ok=%v err=%v", ok, err)
	}

	ok, err = Verify("autre", hash)
	if err != nil {
		t.Fatalf("vérification mauvais mot de passe: %v", err)
	}
	if ok {
		t.Fatal("mauvais mot de passe accepté")
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	raw, hashed, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("génération: %v", err)
	}
	if raw == "" || hashed == "" || raw == hashed {
		t.Fatalf("token suspect: raw=%q hashed=%q", raw, hashed)
	}
	if HashOpaqueToken(raw) != hashed {
		t.Fatal("le hash ne correspond pas au token")
	}

	autre, _, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("seconde génération: %v", err)
	}
	if autre == raw {
		t.Fatal("deux tokens identiques")
	}
}

func TestJWTAllerRetour(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), time.Minute)

	signed, jti, err := mgr.GenerateAccessToken("42", "chauffeur")
	if err != nil {
		t.Fatalf("génération: %v", err)
	}
	if jti == "" {
		t.Fatal("jti vide")
	}

	claims, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("validation: %v", err)
	}
	if claims.Subject != "42" || claims.Role != "chauffeur" {
		t.Fatalf("claims: %s / %s", claims.Subject, claims.Role)
	}
}

func TestJWTExpire(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), -time.Minute)

	signed, _, err := mgr.GenerateAccessToken("42", "client")
	if err != nil {
		t.Fatalf("génération: %v", err)
	}
	if _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("token expiré accepté")
	}
}

func TestJWTAudienceEtrangere(t *testing.T) {
	secret := strings.Repeat("s", 32)
	mgr := NewJWTManager(secret, time.Minute)

	claims := Claims{
		Role: "client",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Audience:  jwt.ClaimStrings{"autre-service"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("génération: %v", err)
	}

	if _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("token émis pour une autre audience accepté")
	}
}

func TestJWTMauvaisSecret(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("s", 32), time.Minute)
	autre := NewJWTManager(strings.Repeat("x", 32), time.Minute)

	signed, _, err := mgr.GenerateAccessToken("42", "client")
	if err != nil {
		t.Fatalf("génération: %v", err)
	}
	if _, err := autre.ParseAndValidate(signed); err == nil {
		t.Fatal("signature étrangère acceptée")
	}
}
