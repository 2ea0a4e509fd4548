package httpapi

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"
)

const viewCookie = "portfolio_viewed"

type PortfolioResponse struct {
	About       *models.About       `json:"about"`
	Skills      []models.Skill      `json:"skills"`
	Projects    []models.Project    `json:"projects"`
	Experiences []models.Experience `json:"experiences"`
	Educations  []models.Education  `json:"educations"`
}

type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](list []T) ItemsResponse[T] {
	if list == nil {
		list = []T{}
	}
	return ItemsResponse[T]{Items: list}
}

func (s *Server) PublicPortfolio(w http.ResponseWriter, r *http.Request) {
	st := s.Store.State()
	WriteJSON(w, http.StatusOK, PortfolioResponse{
		About:       st.About,
		Skills:      nonNil(state.SortSkillsForDisplay(st.Skills)),
		Projects:    nonNil(state.ProjectsByDate(st.Projects)),
		Experiences: nonNil(st.Experiences),
		Educations:  nonNil(st.Educations),
	})
}

func (s *Server) PublicAbout(w http.ResponseWriter, r *http.Request) {
	about := s.Store.State().About
	if about == nil {
		WriteError(w, http.StatusNotFound, "Admin document does not exist.")
		return
	}
	WriteJSON(w, http.StatusOK, about)
}

func (s *Server) PublicSkills(w http.ResponseWriter, r *http.Request) {
	skills := state.SortSkillsForDisplay(s.Store.State().Skills)
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		skills = state.SkillsByCategory(skills, category)
	}
	WriteJSON(w, http.StatusOK, items(skills))
}

type ProjectsResponse struct {
	Items []models.Project `json:"items"`
	Tabs  []string         `json:"tabs"`
}

func (s *Server) PublicProjects(w http.ResponseWriter, r *http.Request) {
	all := state.ProjectsByDate(s.Store.State().Projects)
	query := r.URL.Query()
	projects := state.ProjectsByStack(all, query.Get("stack"))
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		projects = state.SearchProjects(projects, q)
	}
	WriteJSON(w, http.StatusOK, ProjectsResponse{Items: nonNil(projects), Tabs: state.ProjectTabs(all)})
}

func (s *Server) PublicExperiences(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, items(s.Store.State().Experiences))
}

func (s *Server) PublicEducations(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, items(s.Store.State().Educations))
}

func (s *Server) PublicTimeline(w http.ResponseWriter, r *http.Request) {
	st := s.Store.State()
	WriteJSON(w, http.StatusOK, items(state.Timeline(st.Experiences, st.Educations, time.Now())))
}

// SubmitMessage stores a contact form message and puts it on top of the inbox.
func (s *Server) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var form services.MessageForm
	if !decodeJSON(w, r, &form) {
		return
	}
	result := s.Portfolio.AddItem(r.Context(), form)
	if !result.Success {
		WriteJSON(w, result.Status, result)
		return
	}
	message, err := services.FromStorage[models.Message](result.Data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.dispatch(state.AddOne[models.Message]{Item: message})
	WriteJSON(w, result.Status, result)
}

// TrackView counts one view per browser session. The cookie has no expiry so
// it lives as long as the session does.
func (s *Server) TrackView(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(viewCookie); err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, admin := s.authorize(bearerToken(r))
	visit := services.Visit{Hostname: requestHostname(r), Admin: admin}
	http.SetCookie(w, &http.Cookie{
		Name:     viewCookie,
		Value:    "1",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if s.Analytics != nil {
		s.Analytics.TrackView(r.Context(), visit)
	}
	w.WriteHeader(http.StatusAccepted)
}

// requestHostname is the host the visitor loaded the site from: the Origin
// when the call is cross-origin, the Host header otherwise.
func requestHostname(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		if parsed, err := url.Parse(origin); err == nil && parsed.Hostname() != "" {
			return parsed.Hostname()
		}
	}
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		return host
	}
	return r.Host
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
