package httpapi

import (
	"net/http"
	"strings"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"github.com/go-chi/chi/v5"
)

// WriteResponse is a write outcome plus the stored item, when there is one.
type WriteResponse[T any] struct {
	services.Result
	Item *T `json:"item,omitempty"`
}

func listItems[T any](s *Server, selector func(state.State) []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, items(selector(s.Store.State())))
	}
}

// The write handlers persist first and dispatch only after the store
// confirmed the write.

func createItem[F services.Form, T state.Entity](s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form F
		if !decodeJSON(w, r, &form) {
			return
		}
		result := s.Portfolio.AddItem(r.Context(), form)
		if !result.Success {
			WriteJSON(w, result.Status, result)
			return
		}
		item, err := services.FromStorage[T](result.Data)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.dispatch(state.AddOne[T]{Item: item})
		WriteJSON(w, result.Status, WriteResponse[T]{Result: result, Item: &item})
	}
}

func updateItem[F services.Form, T state.Entity](s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form F
		if !decodeJSON(w, r, &form) {
			return
		}
		result := s.Portfolio.UpdateItem(r.Context(), chi.URLParam(r, "id"), form)
		if !result.Success {
			WriteJSON(w, result.Status, result)
			return
		}
		item, err := services.FromStorage[T](result.Data)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.dispatch(state.UpdateOne[T]{Item: item})
		WriteJSON(w, result.Status, WriteResponse[T]{Result: result, Item: &item})
	}
}

func deleteItem[T state.Entity](s *Server, collection services.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		result := s.Portfolio.DeleteItem(r.Context(), collection, id)
		if result.Success {
			s.dispatch(state.DeleteOne[T]{ID: id})
		}
		WriteJSON(w, result.Status, result)
	}
}

type InboxResponse struct {
	Items  []models.Message `json:"items"`
	Unread int              `json:"unread"`
}

func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	inbox := s.Store.State().Inbox
	WriteJSON(w, http.StatusOK, InboxResponse{Items: nonNil(inbox), Unread: state.UnreadCount(inbox)})
}

type ReadRequest struct {
	Read *bool `json:"read"`
}

func (s *Server) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	req := ReadRequest{}
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}
	id := chi.URLParam(r, "id")
	result := s.Portfolio.SetMessageRead(r.Context(), id, read)
	if result.Success {
		s.dispatch(state.SetRead{ID: id, Read: read})
	}
	WriteJSON(w, result.Status, result)
}

func (s *Server) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	var form services.AboutForm
	if !decodeJSON(w, r, &form) {
		return
	}
	result := s.Portfolio.UpdateAbout(r.Context(), form)
	if !result.Success {
		WriteJSON(w, result.Status, result)
		return
	}
	about, err := services.FromStorage[models.About](result.Data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.dispatch(state.SetAbout{About: about})
	WriteJSON(w, result.Status, WriteResponse[models.About]{Result: result, Item: &about})
}

func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if s.Media == nil {
		WriteError(w, http.StatusServiceUnavailable, "Media storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	folder := strings.TrimSpace(r.FormValue("folder"))
	if folder == "" {
		folder = services.FolderProjects
	}
	asset, err := s.Media.Upload(r.Context(), services.Upload{
		Folder:       folder,
		ResourceType: r.FormValue("resource_type"),
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Body:         file,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, asset)
}

type StatsResponse struct {
	Views       models.ViewStats      `json:"views"`
	CurrentWeek int64                 `json:"currentWeek"`
	Unread      int                   `json:"unread"`
	SyncClients int                   `json:"syncClients"`
	System      services.SystemSample `json:"system"`
}

func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	views, err := s.Portfolio.FetchViewStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := StatsResponse{
		Views:       views,
		CurrentWeek: views.Count - views.LastSnapshotCount,
		Unread:      state.UnreadCount(s.Store.State().Inbox),
		System:      services.CaptureSystemSample(s.Config.Media.StoragePath),
	}
	if s.Hub != nil {
		resp.SyncClients = s.Hub.Clients()
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) BootstrapStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.Loader.Status())
}

// ReloadBootstrap re-runs the initial load on demand; failed loads are never
// retried on their own.
func (s *Server) ReloadBootstrap(w http.ResponseWriter, r *http.Request) {
	if err := s.Loader.Run(r.Context()); err != nil {
		WriteJSON(w, http.StatusBadGateway, s.Loader.Status())
		return
	}
	WriteJSON(w, http.StatusOK, s.Loader.Status())
}
