package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/obitec/bodyway/internal/overlay"
	"github.com/obitec/bodyway/internal/render"
	"github.com/obitec/bodyway/internal/store"
)

// parityTolerance is the largest endpoint difference that still counts as a match.
const parityTolerance = 1e-9

// SnapshotsHandler records landmark sets with their computed segments and
// checks that the current geometry still reproduces them.
type SnapshotsHandler struct {
	store    *store.Store
	variants render.Variants
}

// NewSnapshotsHandler creates a new SnapshotsHandler.
func NewSnapshotsHandler(s *store.Store, variants render.Variants) *SnapshotsHandler {
	return &SnapshotsHandler{store: s, variants: variants}
}

// ServeHTTP routes /api/snapshots, /api/snapshots/{id} and /api/snapshots/{id}/verify.
func (h *SnapshotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "verify":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.verify(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type createSnapshotRequest struct {
	Name      string            `json:"name"`
	Variant   int               `json:"variant"`
	Landmarks overlay.Landmarks `json:"landmarks"`
}

type snapshotResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Variant   int               `json:"variant"`
	Landmarks json.RawMessage   `json:"landmarks"`
	Segments  []overlay.Segment `json:"segments"`
	CreatedAt string            `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotSummary `json:"snapshots"`
}

type snapshotSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Variant   int    `json:"variant"`
	CreatedAt string `json:"created_at"`
}

type verifyResponse struct {
	ID         string `json:"id"`
	Match      bool   `json:"match"`
	Segments   int    `json:"segments"`
	Mismatches []int  `json:"mismatches"`
	Error      string `json:"error,omitempty"`
}

// skeletonFor computes the segments of landmarks in the style of variant.
func (h *SnapshotsHandler) skeletonFor(landmarks overlay.Landmarks, variant int) ([]overlay.Segment, error) {
	v, err := h.variants.Variant(variant)
	if err != nil {
		return nil, err
	}
	style, err := v.Style()
	if err != nil {
		return nil, err
	}
	return overlay.Skeleton(landmarks, overlay.Identity, style)
}

func toSnapshotResponse(sn *store.Snapshot) (snapshotResponse, error) {
	var segments []overlay.Segment
	if err := json.Unmarshal(sn.Segments, &segments); err != nil {
		return snapshotResponse{}, err
	}
	return snapshotResponse{
		ID:        sn.ID,
		Name:      sn.Name,
		Variant:   sn.Variant,
		Landmarks: sn.Landmarks,
		Segments:  segments,
		CreatedAt: formatTime(sn.CreatedAt),
	}, nil
}

// list handles GET /api/snapshots.
func (h *SnapshotsHandler) list(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{Snapshots: make([]snapshotSummary, 0, len(snapshots))}
	for _, sn := range snapshots {
		response.Snapshots = append(response.Snapshots, snapshotSummary{
			ID:        sn.ID,
			Name:      sn.Name,
			Variant:   sn.Variant,
			CreatedAt: formatTime(sn.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots.
func (h *SnapshotsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	segments, err := h.skeletonFor(req.Landmarks, req.Variant)
	if err != nil {
		if errors.Is(err, overlay.ErrMissingLandmark) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to compute segments")
		return
	}

	landmarksJSON, err := json.Marshal(req.Landmarks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode landmarks")
		return
	}
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode segments")
		return
	}

	sn := &store.Snapshot{
		Name:      req.Name,
		Variant:   req.Variant,
		Landmarks: landmarksJSON,
		Segments:  segmentsJSON,
	}
	if err := h.store.Snapshots().Create(sn); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create snapshot")
		return
	}

	response, err := toSnapshotResponse(sn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode segments")
		return
	}
	writeJSON(w, http.StatusCreated, response)
}

func (h *SnapshotsHandler) load(w http.ResponseWriter, id string) (*store.Snapshot, bool) {
	sn, err := h.store.Snapshots().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return nil, false
	}
	return sn, true
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sn, ok := h.load(w, id)
	if !ok {
		return
	}
	response, err := toSnapshotResponse(sn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode segments")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Snapshots().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// verify handles POST /api/snapshots/{id}/verify. It recomputes the segments
// from the stored landmarks and compares endpoints; styles are not compared
// since variants can be edited after recording.
func (h *SnapshotsHandler) verify(w http.ResponseWriter, r *http.Request, id string) {
	sn, ok := h.load(w, id)
	if !ok {
		return
	}

	var landmarks overlay.Landmarks
	if err := json.Unmarshal(sn.Landmarks, &landmarks); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode landmarks")
		return
	}
	var recorded []overlay.Segment
	if err := json.Unmarshal(sn.Segments, &recorded); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode segments")
		return
	}

	response := verifyResponse{ID: sn.ID, Mismatches: []int{}}

	current, err := overlay.Skeleton(landmarks, overlay.Identity, overlay.Style{})
	if err != nil {
		response.Error = err.Error()
		writeJSON(w, http.StatusOK, response)
		return
	}

	response.Segments = len(current)
	response.Mismatches = compareSegments(recorded, current)
	response.Match = len(response.Mismatches) == 0
	writeJSON(w, http.StatusOK, response)
}

// compareSegments returns the indices at which a and b differ in geometry.
// Extra segments on either side count as mismatches.
func compareSegments(a, b []overlay.Segment) []int {
	mismatches := []int{}
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		if i >= len(a) || i >= len(b) || !sameGeometry(a[i], b[i]) {
			mismatches = append(mismatches, i)
		}
	}
	return mismatches
}

func sameGeometry(a, b overlay.Segment) bool {
	return near(a.From.X, b.From.X) && near(a.From.Y, b.From.Y) &&
		near(a.To.X, b.To.X) && near(a.To.Y, b.To.Y)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= parityTolerance
}

