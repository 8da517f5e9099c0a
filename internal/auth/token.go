package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRefresh est retourné quand le token de refresh est invalide ou expiré.
	ErrInvalidRefresh = errors.New("refresh token invalide")
)

// GenerateOpaqueToken crée un token aléatoire sûr et son hash persistable.
// Sert à la fois aux refresh tokens et aux tokens de réinitialisation.
func GenerateOpaqueToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashOpaqueToken(raw)
	return raw, hashed, nil
}

// HashOpaqueToken produit un hash SHA-256 en base64.
func HashOpaqueToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey construit la clé unique de l'état du refresh.
func RefreshRedisKey(hash string) string {
	return fmt.Sprintf("refresh:%s", hash)
}
