package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"portfolio-backend-go/internal/bootstrap"
	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	Config    config.Config
	Portfolio *services.Portfolio
	Accounts  services.Accounts
	Tokens    services.TokenService
	Store     *state.Store
	Loader    *bootstrap.Loader
	Media     services.MediaStore
	Analytics services.Analytics
	Hub       *services.Hub

	logins *loginLimiter
}

func NewServer(cfg config.Config, portfolio *services.Portfolio, store *state.Store, loader *bootstrap.Loader, media services.MediaStore, hub *services.Hub) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	return &Server{
		Config:    cfg,
		Portfolio: portfolio,
		Accounts:  services.Accounts{Docs: portfolio.Docs, Tokens: tokens},
		Tokens:    tokens,
		Store:     store,
		Loader:    loader,
		Media:     media,
		Analytics: &services.ViewTracker{Portfolio: portfolio},
		Hub:       hub,
		logins:    newLoginLimiter(cfg.LoginRatePerMinute),
	}
}

func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger)
	r.Use(chimw.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.Login)
			auth.Get("/session", s.Session)
			auth.With(s.RequireSession).Post("/logout", s.Logout)
		})

		api.Route("/public", func(pub chi.Router) {
			pub.Post("/messages", s.SubmitMessage)
			pub.Post("/views", s.TrackView)

			pub.Group(func(content chi.Router) {
				content.Use(s.RequireLoaded)
				content.Get("/portfolio", s.PublicPortfolio)
				content.Get("/about", s.PublicAbout)
				content.Get("/skills", s.PublicSkills)
				content.Get("/projects", s.PublicProjects)
				content.Get("/experiences", s.PublicExperiences)
				content.Get("/educations", s.PublicEducations)
				content.Get("/timeline", s.PublicTimeline)
			})
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(s.RequireSession)
			admin.Get("/bootstrap", s.BootstrapStatus)
			admin.Post("/bootstrap/reload", s.ReloadBootstrap)
			admin.Get("/stats", s.Stats)
			admin.Post("/media", s.UploadMedia)

			admin.Group(func(content chi.Router) {
				content.Use(s.RequireLoaded)
				content.Put("/about", s.UpdateAbout)
				content.Route("/skills", func(rt chi.Router) {
					rt.Get("/", listItems(s, func(st state.State) []models.Skill { return state.SortSkillsForDisplay(st.Skills) }))
					rt.Post("/", createItem[services.SkillForm, models.Skill](s))
					rt.Put("/{id}", updateItem[services.SkillForm, models.Skill](s))
					rt.Delete("/{id}", deleteItem[models.Skill](s, services.CollectionSkills))
				})
				content.Route("/projects", func(rt chi.Router) {
					rt.Get("/", listItems(s, func(st state.State) []models.Project { return state.ProjectsByDate(st.Projects) }))
					rt.Post("/", createItem[services.ProjectForm, models.Project](s))
					rt.Put("/{id}", updateItem[services.ProjectForm, models.Project](s))
					rt.Delete("/{id}", deleteItem[models.Project](s, services.CollectionProjects))
				})
				content.Route("/experiences", func(rt chi.Router) {
					rt.Get("/", listItems(s, func(st state.State) []models.Experience { return st.Experiences }))
					rt.Post("/", createItem[services.ExperienceForm, models.Experience](s))
					rt.Put("/{id}", updateItem[services.ExperienceForm, models.Experience](s))
					rt.Delete("/{id}", deleteItem[models.Experience](s, services.CollectionExperiences))
				})
				content.Route("/qualifications", func(rt chi.Router) {
					rt.Get("/", listItems(s, func(st state.State) []models.Education { return st.Educations }))
					rt.Post("/", createItem[services.EducationForm, models.Education](s))
					rt.Put("/{id}", updateItem[services.EducationForm, models.Education](s))
					rt.Delete("/{id}", deleteItem[models.Education](s, services.CollectionQualifications))
				})
				content.Route("/messages", func(rt chi.Router) {
					rt.Get("/", s.ListMessages)
					rt.Patch("/{id}/read", s.MarkMessageRead)
					rt.Delete("/{id}", deleteItem[models.Message](s, services.CollectionMessages))
				})
			})
		})
	})

	r.Get("/ws/sync", s.SyncSocket)
	r.Get("/media/{folder}/{key}", s.MediaContent)
	return r
}

// dispatch applies an action after a confirmed remote write.
func (s *Server) dispatch(action state.Action) {
	if err := s.Store.Dispatch(action); err != nil {
		log.Printf("persist %s: %v", action.Type(), err)
	}
}
