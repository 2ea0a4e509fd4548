package httpapi

import (
	"net/http"
	"strings"

	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// ForwardActions relays every dispatched action to sync clients. Auth
// actions go out without their payload so tokens never leave the process.
func ForwardActions(store *state.Store, hub *services.Hub) func() {
	return store.Subscribe(func(_ state.State, action state.Action) {
		event := services.Event{Type: action.Type()}
		if !strings.HasPrefix(action.Type(), "auth/") {
			event.Payload = action
		}
		hub.Broadcast(event)
	})
}

func (s *Server) SyncSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if _, ok := s.authorize(token); !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	err = s.Hub.Join(conn, func() services.Event {
		return services.Event{Type: "snapshot", Payload: s.Store.State()}
	})
	if err != nil {
		return
	}
	defer s.Hub.Remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// MediaContent serves objects kept by the local media store.
func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	local, ok := s.Media.(services.LocalMediaStore)
	if !ok {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	file, err := local.Open(chi.URLParam(r, "folder"), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
