package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/mail"
	"github.com/cocollecte/cocal/internal/util"
	"github.com/cocollecte/cocal/internal/utilisateur"
)

var (
	// ErrInvalidCredentials indique un échec d'authentification.
	ErrInvalidCredentials = errors.New("identifiants invalides")
	// ErrRefreshInvalid indique un refresh token invalide ou expiré.
	ErrRefreshInvalid = auth.ErrInvalidRefresh
)

type authRepository interface {
	GetByEmail(ctx context.Context, email string) (utilisateur.Utilisateur, error)
	SetResetToken(ctx context.Context, email, tokenHash string, expire time.Time) (utilisateur.Utilisateur, error)
	ResetPassword(ctx context.Context, tokenHash, motDePasseHash string) error
}

type profilResolver interface {
	Resoudre(ctx context.Context, utilisateurID int64, role identite.Role) (*identite.Profil, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentre authentification et sessions. Les refresh tokens
// sont opaques, stockés hachés dans Redis avec leur TTL.
type AuthService struct {
	repo       authRepository
	resolver   profilResolver
	redis      redisCommander
	jwt        *auth.JWTManager
	mailer     mail.Mailer
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewAuthService crée le service.
func NewAuthService(repo authRepository, resolver profilResolver, redisClient redisCommander,
	jwtMgr *auth.JWTManager, mailer mail.Mailer, refreshTTL, resetTTL time.Duration) *AuthService {
	return &AuthService{
		repo:       repo,
		resolver:   resolver,
		redis:      redisClient,
		jwt:        jwtMgr,
		mailer:     mailer,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// JWT expose le gestionnaire de JWT (utile aux middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult représente le retour standard d'une authentification.
type LoginResult struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Utilisateur  LoginUtilisateur `json:"utilisateur"`
}

// LoginUtilisateur est la vue publique du compte connecté.
type LoginUtilisateur struct {
	ID    int64  `json:"id"`
	Nom   string `json:"nom"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login authentifie par email et mot de passe, quel que soit le rôle.
// Les échecs ne précisent jamais si c'est l'email ou le mot de passe.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, utilisateur.ErrIntrouvable) {
			log.Warn().Msg("login: compte inconnu")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.MotDePasseHash)
	if err != nil || !ok {
		log.Warn().Msg("login: mot de passe refusé")
		return nil, ErrInvalidCredentials
	}

	return s.emettreTokens(ctx, user)
}

func (s *AuthService) emettreTokens(ctx context.Context, user utilisateur.Utilisateur) (*LoginResult, error) {
	accessToken, _, err := s.jwt.GenerateAccessToken(strconv.FormatInt(user.ID, 10), user.Role)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	valeur := fmt.Sprintf("%d|%s", user.ID, user.Role)
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), valeur, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		Utilisateur: LoginUtilisateur{
			ID:    user.ID,
			Nom:   user.Nom,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Refresh échange un refresh token valide contre une nouvelle paire.
// Rotation systématique : l'ancien token est invalidé.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	hash := auth.HashOpaqueToken(strings.TrimSpace(rawRefresh))
	cle := auth.RefreshRedisKey(hash)

	valeur, err := s.redis.Get(ctx, cle).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	idStr, role, ok := strings.Cut(valeur, "|")
	if !ok {
		return nil, ErrRefreshInvalid
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	if err := s.redis.Del(ctx, cle).Err(); err != nil {
		return nil, err
	}

	accessToken, _, err := s.jwt.GenerateAccessToken(idStr, role)
	if err != nil {
		return nil, err
	}

	rawNouveau, hashNouveau, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(hashNouveau), valeur, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: rawNouveau,
		Utilisateur:  LoginUtilisateur{ID: id, Role: role},
	}, nil
}

// Logout révoque le refresh token. Idempotent : un token déjà révoqué
// n'est pas une erreur.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	hash := auth.HashOpaqueToken(strings.TrimSpace(rawRefresh))
	return s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err()
}

// ForgotPassword pose un token de réinitialisation et l'envoie par e-mail.
// Ne révèle jamais si l'adresse existe : un compte inconnu réussit en
// silence.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := util.ValidateEmail(email); err != nil {
		return err
	}

	raw, hash, err := auth.GenerateOpaqueToken()
	if err != nil {
		return err
	}

	user, err := s.repo.SetResetToken(ctx, strings.ToLower(strings.TrimSpace(email)), hash, time.Now().UTC().Add(s.resetTTL))
	if err != nil {
		if errors.Is(err, utilisateur.ErrIntrouvable) {
			log.Info().Msg("forgot-password: adresse inconnue, réponse neutre")
			return nil
		}
		return err
	}

	corps := fmt.Sprintf(
		"Bonjour %s,\n\nVoici votre code de réinitialisation CoCal : %s\n\nIl expire dans %s. Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.",
		user.Nom, raw, s.resetTTL)

	if err := s.mailer.Send(ctx, user.Email, "Réinitialisation de votre mot de passe CoCal", corps); err != nil {
		log.Error().Err(err).Msg("forgot-password: envoi e-mail échoué")
		return err
	}
	return nil
}

// ResetPassword consomme le token de réinitialisation et pose le nouveau
// mot de passe.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, nouveauMotDePasse string) error {
	if err := util.ValidatePassword(nouveauMotDePasse); err != nil {
		return err
	}

	hash, err := auth.Hash(nouveauMotDePasse)
	if err != nil {
		return err
	}

	return s.repo.ResetPassword(ctx, auth.HashOpaqueToken(strings.TrimSpace(rawToken)), hash)
}

// Me résout le profil complet du compte connecté.
func (s *AuthService) Me(ctx context.Context, utilisateurID int64, role string) (*identite.Profil, error) {
	r, err := identite.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resoudre(ctx, utilisateurID, r)
}
