package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"studio/internal/compose"
	"studio/internal/infra"
	"studio/internal/providers/caption"
	"studio/internal/storage"
)

// App is the handler container. Everything a request handler touches is
// injected here.
type App struct {
	Logger     zerolog.Logger
	Config     *infra.Config
	SQL        infra.SQLExecutor
	Store      *storage.FileStore
	Compositor *compose.Compositor
	Captions   caption.Suggester
	Sessions   *SessionManager
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
