package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/obitec/bodyway/internal/render"
	"github.com/obitec/bodyway/internal/store"
)

// StylesHandler handles HTTP requests for overlay style variants.
type StylesHandler struct {
	store *store.Store
}

// NewStylesHandler creates a new StylesHandler with the given store.
func NewStylesHandler(s *store.Store) *StylesHandler {
	return &StylesHandler{store: s}
}

// ServeHTTP routes /api/styles and /api/styles/{variant}.
func (h *StylesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/styles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	variant, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid variant")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, variant)
	case http.MethodPut:
		h.update(w, r, variant)
	case http.MethodDelete:
		h.delete(w, r, variant)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createStyleRequest struct {
	Variant *int    `json:"variant"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Visible *bool   `json:"visible"`
}

type updateStyleRequest struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Width   *float64 `json:"width"`
	Visible *bool    `json:"visible"`
}

type styleResponse struct {
	Variant   int     `json:"variant"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Visible   bool    `json:"visible"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listStylesResponse struct {
	Styles []styleResponse `json:"styles"`
}

func toStyleResponse(st *store.Style) styleResponse {
	return styleResponse{
		Variant:   st.Variant,
		Name:      st.Name,
		Color:     st.Color,
		Width:     st.Width,
		Visible:   st.Visible,
		CreatedAt: formatTime(st.CreatedAt),
		UpdatedAt: formatTime(st.UpdatedAt),
	}
}

// validateStyle checks that color and width describe a drawable stroke.
func validateStyle(color string, width float64) string {
	if _, err := render.StyleFromHex(color, width); err != nil {
		return "Invalid color or width"
	}
	return ""
}

// list handles GET /api/styles.
func (h *StylesHandler) list(w http.ResponseWriter, r *http.Request) {
	styles, err := h.store.Styles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list styles")
		return
	}

	response := listStylesResponse{Styles: make([]styleResponse, 0, len(styles))}
	for _, st := range styles {
		response.Styles = append(response.Styles, toStyleResponse(st))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/styles/{variant}.
func (h *StylesHandler) get(w http.ResponseWriter, r *http.Request, variant int) {
	st, err := h.store.Styles().Get(variant)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Style not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get style")
		return
	}
	writeJSON(w, http.StatusOK, toStyleResponse(st))
}

// create handles POST /api/styles.
func (h *StylesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Variant == nil || *req.Variant < 0 {
		writeError(w, http.StatusBadRequest, "Variant is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if msg := validateStyle(req.Color, req.Width); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.store.Styles().Get(*req.Variant); err == nil {
		writeError(w, http.StatusConflict, "Variant already exists")
		return
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}

	st := &store.Style{
		Variant: *req.Variant,
		Name:    req.Name,
		Color:   req.Color,
		Width:   req.Width,
		Visible: visible,
	}
	if err := h.store.Styles().Create(st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create style")
		return
	}

	writeJSON(w, http.StatusCreated, toStyleResponse(st))
}

// update handles PUT /api/styles/{variant}.
func (h *StylesHandler) update(w http.ResponseWriter, r *http.Request, variant int) {
	st, err := h.store.Styles().Get(variant)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Style not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get style")
		return
	}

	var req updateStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		st.Name = req.Name
	}
	if req.Color != "" {
		st.Color = req.Color
	}
	if req.Width != nil {
		st.Width = *req.Width
	}
	if req.Visible != nil {
		st.Visible = *req.Visible
	}
	if msg := validateStyle(st.Color, st.Width); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Styles().Update(st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update style")
		return
	}

	writeJSON(w, http.StatusOK, toStyleResponse(st))
}

// delete handles DELETE /api/styles/{variant}.
func (h *StylesHandler) delete(w http.ResponseWriter, r *http.Request, variant int) {
	if err := h.store.Styles().Delete(variant); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Style not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete style")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
