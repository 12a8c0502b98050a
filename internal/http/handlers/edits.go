package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studio/internal/canvas"
	"studio/internal/domain"
	"studio/internal/raster"
	"studio/internal/sqlinline"
)

// SessionManager tracks open touch-up sessions by id. Sessions live in
// process memory; a restart discards them.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*canvas.Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*canvas.Session)}
}

func (m *SessionManager) Put(s *canvas.Session) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id
}

func (m *SessionManager) Get(id string) (*canvas.Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	return s, ok
}

func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

type editOpenRequest struct {
	AssetID     string `json:"asset_id"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Viewport    struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
}

// EditOpen starts a touch-up session over a stored asset or inline image
// bytes. The response carries the scaled canvas dimensions the client must
// use for stroke coordinates.
func (a *App) EditOpen(w http.ResponseWriter, r *http.Request) {
	var req editOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var data []byte
	mime := req.MimeType
	switch {
	case req.AssetID != "":
		asset, err := a.loadAsset(r.Context(), req.AssetID)
		if err != nil {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		data, err = a.Store.Read(r.Context(), asset.StorageKey)
		if err != nil {
			a.error(w, http.StatusNotFound, "not_found", "asset payload missing")
			return
		}
		mime = asset.MimeType
	case req.ImageBase64 != "":
		var err error
		data, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid image encoding")
			return
		}
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id or image_base64 required")
		return
	}

	vp := canvas.Viewport{Width: req.Viewport.Width, Height: req.Viewport.Height}
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = canvas.Viewport{Width: a.Config.ViewportWidth, Height: a.Config.ViewportHeight}
	}

	session, err := canvas.Open(data, mime, vp)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			a.error(w, http.StatusUnprocessableEntity, "bad_image", "image cannot be decoded")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to open session")
		return
	}

	id := a.Sessions.Put(session)
	width, height := session.Size()
	a.json(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"width":      width,
		"height":     height,
		"tool":       canvas.ToolBrush,
		"max_width":  canvas.MaxStrokeWidth,
	})
}

type editConfigRequest struct {
	Tool  string   `json:"tool"`
	Color string   `json:"color"`
	Width *float64 `json:"width"`
}

// EditConfig updates the session's tool, color, or stroke width. Color
// changes are ignored while the eraser is selected.
func (a *App) EditConfig(w http.ResponseWriter, r *http.Request) {
	session, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	var req editConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	if req.Tool != "" {
		if err := session.SetTool(canvas.Tool(req.Tool)); err != nil {
			a.editError(w, err, "unsupported tool")
			return
		}
	}
	if req.Width != nil {
		if err := session.SetWidth(*req.Width); err != nil {
			a.editError(w, err, "invalid stroke width")
			return
		}
	}
	if req.Color != "" {
		c, err := parseHexColor(req.Color)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid color")
			return
		}
		if err := session.SetColor(c); err != nil {
			a.editError(w, err, "failed to set color")
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type strokeRequest struct {
	Points []canvas.Point `json:"points"`
}

// EditStroke applies one complete gesture: the first point starts it, the
// rest extend it, and the gesture ends when all points are consumed.
func (a *App) EditStroke(w http.ResponseWriter, r *http.Request) {
	session, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	var req strokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Points) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "at least one point required")
		return
	}

	if err := session.StrokeStart(req.Points[0]); err != nil {
		a.editError(w, err, "failed to start stroke")
		return
	}
	for _, p := range req.Points[1:] {
		if err := session.StrokeExtend(p); err != nil {
			a.editError(w, err, "failed to extend stroke")
			return
		}
	}
	if err := session.StrokeEnd(); err != nil {
		a.editError(w, err, "failed to end stroke")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editSaveRequest struct {
	AssetID string `json:"asset_id"`
	PostID  string `json:"post_id"`
}

// EditSave flattens the session to a PNG at the background's native size.
// With an asset or post target the result replaces the stored image;
// otherwise the PNG is streamed back. Either way the session becomes
// terminal.
func (a *App) EditSave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	session, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	var req editSaveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rendered, err := session.Save()
	if err != nil {
		a.editError(w, err, "failed to save session")
		return
	}
	a.Sessions.Remove(sessionID)

	width, height := raster.Dimensions(rendered)

	if req.AssetID != "" {
		asset, err := a.loadAsset(r.Context(), req.AssetID)
		if err != nil {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		key := fmt.Sprintf("edits/%s.png", uuid.NewString())
		if _, err := a.Store.Write(r.Context(), key, rendered); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to store result")
			return
		}
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QReplaceAssetPayload,
			asset.ID, key, raster.MimePNG, width, height, int64(len(rendered))); err != nil {
			a.Logger.Error().Err(err).Str("asset_id", asset.ID).Msg("replace asset payload failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to update asset")
			return
		}
		a.json(w, http.StatusOK, map[string]any{
			"asset_id":    asset.ID,
			"storage_key": key,
			"mime":        raster.MimePNG,
			"width":       width,
			"height":      height,
		})
		return
	}

	if req.PostID != "" {
		post, err := a.loadPost(r.Context(), req.PostID)
		if err != nil {
			a.error(w, http.StatusNotFound, "not_found", "post not found")
			return
		}
		key := fmt.Sprintf("edits/%s.png", uuid.NewString())
		if _, err := a.Store.Write(r.Context(), key, rendered); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to store result")
			return
		}
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpdatePostImage, post.ID, key, raster.MimePNG); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to update post")
			return
		}
		a.json(w, http.StatusOK, map[string]any{
			"post_id":     post.ID,
			"storage_key": key,
			"mime":        raster.MimePNG,
			"width":       width,
			"height":      height,
		})
		return
	}

	w.Header().Set("Content-Type", raster.MimePNG)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rendered)
}

// EditCancel abandons the session without producing output.
func (a *App) EditCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	session, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	session.Cancel()
	a.Sessions.Remove(sessionID)
	a.json(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (a *App) requireSession(w http.ResponseWriter, r *http.Request) (*canvas.Session, bool) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return nil, false
	}
	session, ok := a.Sessions.Get(sessionID)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return session, true
}

func (a *App) editError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrSessionState):
		a.error(w, http.StatusConflict, "session_closed", "session is no longer editable")
	default:
		a.error(w, http.StatusBadRequest, "bad_request", message)
	}
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	var v [4]uint8
	v[3] = 0xFF
	for i := 0; i < len(s)/2; i++ {
		var b uint8
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		v[i] = b
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}
