package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/utilisateur"
)

type stubAuthRepo struct {
	user       utilisateur.Utilisateur
	resetHash  string
	resetCalls int
}

func (s *stubAuthRepo) GetByEmail(_ context.Context, email string) (utilisateur.Utilisateur, error) {
	if strings.EqualFold(email, s.user.Email) {
		return s.user, nil
	}
	return utilisateur.Utilisateur{}, utilisateur.ErrIntrouvable
}

func (s *stubAuthRepo) SetResetToken(_ context.Context, email, tokenHash string, _ time.Time) (utilisateur.Utilisateur, error) {
	if !strings.EqualFold(email, s.user.Email) {
		return utilisateur.Utilisateur{}, utilisateur.ErrIntrouvable
	}
	s.resetHash = tokenHash
	return s.user, nil
}

func (s *stubAuthRepo) ResetPassword(_ context.Context, tokenHash, _ string) error {
	s.resetCalls++
	if tokenHash != s.resetHash || s.resetHash == "" {
		return utilisateur.ErrResetTokenInvalid
	}
	return nil
}

type stubResolver struct{}

func (stubResolver) Resoudre(_ context.Context, utilisateurID int64, role identite.Role) (*identite.Profil, error) {
	return &identite.Profil{UtilisateurID: utilisateurID, Role: role}, nil
}

type fakeRedis struct {
	store map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: map[string]string{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.store[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := f.store[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.store[k]; ok {
			delete(f.store, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type enregistreur struct {
	destinataires []string
}

func (e *enregistreur) Send(_ context.Context, destinataire, _, _ string) error {
	e.destinataires = append(e.destinataires, destinataire)
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *stubAuthRepo, *fakeRedis, *enregistreur) {
	t.Helper()

	hash, err := auth.Hash("motdepasse123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	repo := &stubAuthRepo{user: utilisateur.Utilisateur{
		ID:             7,
		Nom:            "Claire Martin",
		Email:          "claire@exemple.fr",
		MotDePasseHash: hash,
		Role:           "client",
	}}
	rds := newFakeRedis()
	mailer := &enregistreur{}
	jwtMgr := auth.NewJWTManager(strings.Repeat("s", 32), 15*time.Minute)

	svc := NewAuthService(repo, stubResolver{}, rds, jwtMgr, mailer, time.Hour, time.Hour)
	return svc, repo, rds, mailer
}

func TestLoginSucces(t *testing.T) {
	svc, _, rds, _ := newTestAuthService(t)

	result, err := svc.Login(context.Background(), "Claire@Exemple.fr", "motdepasse123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("tokens absents")
	}
	if result.Utilisateur.Role != "client" {
		t.Fatalf("role = %q", result.Utilisateur.Role)
	}
	if len(rds.store) != 1 {
		t.Fatalf("refresh non stocké: %d clés", len(rds.store))
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "7" || claims.Role != "client" {
		t.Fatalf("claims inattendus: %s / %s", claims.Subject, claims.Role)
	}
}

func TestLoginRefuse(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	if _, err := svc.Login(context.Background(), "claire@exemple.fr", "mauvais"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("mauvais mot de passe: err = %v", err)
	}
	if _, err := svc.Login(context.Background(), "inconnu@exemple.fr", "motdepasse123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("compte inconnu: err = %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, rds, _ := newTestAuthService(t)

	login, err := svc.Login(context.Background(), "claire@exemple.fr", "motdepasse123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("le refresh token devrait être renouvelé")
	}
	if refreshed.Utilisateur.ID != 7 {
		t.Fatalf("utilisateur = %d", refreshed.Utilisateur.ID)
	}

	// l'ancien token est révoqué après rotation
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("ancien token: err = %v", err)
	}
	if len(rds.store) != 1 {
		t.Fatalf("%d clés en stock", len(rds.store))
	}
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _, rds, _ := newTestAuthService(t)

	login, err := svc.Login(context.Background(), "claire@exemple.fr", "motdepasse123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(rds.store) != 0 {
		t.Fatal("refresh toujours en stock après logout")
	}
	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout répété: %v", err)
	}
}

func TestForgotPasswordNeRevelePasLesComptes(t *testing.T) {
	svc, repo, _, mailer := newTestAuthService(t)

	if err := svc.ForgotPassword(context.Background(), "inconnu@exemple.fr"); err != nil {
		t.Fatalf("adresse inconnue devrait réussir en silence: %v", err)
	}
	if len(mailer.destinataires) != 0 {
		t.Fatal("aucun e-mail ne devrait partir pour une adresse inconnue")
	}

	if err := svc.ForgotPassword(context.Background(), "claire@exemple.fr"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(mailer.destinataires) != 1 || mailer.destinataires[0] != "claire@exemple.fr" {
		t.Fatalf("destinataires = %v", mailer.destinataires)
	}
	if repo.resetHash == "" {
		t.Fatal("token de réinitialisation non posé")
	}
}

func TestResetPassword(t *testing.T) {
	svc, repo, _, _ := newTestAuthService(t)

	if err := svc.ResetPassword(context.Background(), "peu-importe", "court"); err == nil {
		t.Fatal("mot de passe trop court accepté")
	}
	if repo.resetCalls != 0 {
		t.Fatal("le repository ne devrait pas être sollicité avant validation")
	}

	if err := svc.ResetPassword(context.Background(), "token-invalide", "nouveaumotdepasse"); !errors.Is(err, utilisateur.ErrResetTokenInvalid) {
		t.Fatalf("token invalide: err = %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	profil, err := svc.Me(context.Background(), 7, "client")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profil.UtilisateurID != 7 || profil.Role != identite.RoleClient {
		t.Fatalf("profil inattendu: %+v", profil)
	}

	if _, err := svc.Me(context.Background(), 7, "superviseur"); err == nil {
		t.Fatal("rôle inconnu accepté")
	}
}
