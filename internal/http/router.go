package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/config"
	httpmiddleware "github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/identite"
)

// Handler regroupe les dépendances des handlers HTTP.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	auth          AuthProvider
	utilisateurs  UtilisateurService
	vehicules     VehiculeService
	collectes     CollecteService
	messages      MessagerieService
	resolver      *identite.Resolver
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// Deps porte les services injectés dans le routeur.
type Deps struct {
	Auth         AuthProvider
	Utilisateurs UtilisateurService
	Vehicules    VehiculeService
	Collectes    CollecteService
	Messages     MessagerieService
	Resolver     *identite.Resolver
	JWT          *auth.JWTManager
}

// NewRouter construit le routeur complet : surface publique, routes
// authentifiées et groupes par rôle.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, deps Deps) http.Handler {
	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		auth:          deps.Auth,
		utilisateurs:  deps.Utilisateurs,
		vehicules:     deps.Vehicules,
		collectes:     deps.Collectes,
		messages:      deps.Messages,
		resolver:      deps.Resolver,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
			auth.Post("/forgot-password", h.ForgotPassword)
			auth.Post("/reset-password", h.ResetPassword)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.JWT))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		private.Route("/client", func(client chi.Router) {
			client.Use(httpmiddleware.RequireProfil(h.resolver, identite.RoleClient))

			client.Route("/demande-collecte", func(dc chi.Router) {
				dc.Post("/", h.CreateDemande)
				dc.Get("/", h.ListDemandesClient)
				dc.Put("/{id}", h.UpdateDemandeClient)
				dc.Delete("/{id}", h.DeleteDemandeClient)
			})

			h.mountMessagerie(client)
		})

		private.Route("/chauffeur", func(chauffeur chi.Router) {
			chauffeur.Use(httpmiddleware.RequireProfil(h.resolver, identite.RoleChauffeur))

			chauffeur.Route("/collectes", func(c chi.Router) {
				c.Get("/", h.ListCollectesChauffeur)
				c.Put("/{id}/statut", h.UpdateStatutChauffeur)
				c.Post("/{id}/probleme", h.SignalerProbleme)
			})

			h.mountMessagerie(chauffeur)
		})

		private.Route("/commercial", func(commercial chi.Router) {
			commercial.Use(httpmiddleware.RequireProfil(h.resolver, identite.RoleCommercial))

			commercial.Get("/demandes", h.ListDemandesCommercial)
			commercial.Put("/demande/{id}/statut", h.UpdateStatutCommercial)
			commercial.Put("/demande/{id}/affectation", h.AffecterDemandeCommercial)
			commercial.Get("/clients", h.ListClientsCommercial)
			commercial.Get("/problemes", h.ListProblemesCommercial)
			commercial.Put("/problemes/{id}/statut", h.UpdateProblemeCommercial)

			h.mountMessagerie(commercial)
		})

		private.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireProfil(h.resolver, identite.RoleAdmin))

			admin.Route("/collectes", func(c chi.Router) {
				c.Get("/", h.ListCollectesAdmin)
				c.Put("/{id}/statut", h.UpdateStatutAdmin)
				c.Put("/{id}/affectation", h.AffecterDemande)
			})

			admin.Route("/users", func(u chi.Router) {
				u.Post("/", h.CreateUtilisateur)
				u.Get("/", h.ListUtilisateurs)
				u.Get("/{id}", h.GetUtilisateur)
				u.Put("/{id}", h.UpdateUtilisateur)
				u.Delete("/{id}", h.DeleteUtilisateur)
			})

			admin.Route("/vehicules", func(v chi.Router) {
				v.Post("/", h.CreateVehicule)
				v.Get("/", h.ListVehicules)
				v.Get("/{id}", h.GetVehicule)
				v.Put("/{id}", h.UpdateVehicule)
				v.Delete("/{id}", h.DeleteVehicule)
			})

			admin.Get("/problemes", h.ListProblemesAdmin)
			admin.Put("/problemes/{id}/statut", h.UpdateProblemeAdmin)

			h.mountMessagerie(admin)
		})
	})

	return r
}

func (h *Handler) mountMessagerie(r chi.Router) {
	r.Route("/messages", func(m chi.Router) {
		m.Get("/", h.ListMessages)
		m.Post("/", h.SendMessage)
		m.Put("/{id}/lu", h.MarquerMessageLu)
		m.Delete("/{id}", h.DeleteMessage)
	})
}
