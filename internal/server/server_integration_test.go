package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/capture"
	"github.com/obitec/bodyway/internal/detector"
	"github.com/obitec/bodyway/internal/overlay"
	"github.com/obitec/bodyway/internal/session"
	"github.com/obitec/bodyway/internal/store"
)

type integration struct {
	store   *store.Store
	session *session.Session
	server  *httptest.Server
}

func newIntegration(t *testing.T) *integration {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	det := detector.NewMockDetector()
	det.SetPoses([]detector.Pose{detector.StandingPose()})

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	require.NoError(t, cam.Open())

	sess, err := session.New(session.Config{
		Camera:        cam,
		Detector:      det,
		Variants:      session.StoreVariants{Styles: st.Styles()},
		States:        st.Settings(),
		MinLikelihood: 0.5,
		Initial:       session.State{Facing: capture.Back},
	})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Dispose() })

	ts := httptest.NewServer(New(Config{Store: st, Session: sess, StreamFPS: 50}))
	t.Cleanup(ts.Close)

	return &integration{store: st, session: sess, server: ts}
}

func (it *integration) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := it.server.Client().Post(it.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_StyleSwitchWorkflow(t *testing.T) {
	it := newIntegration(t)

	// 1. A fresh database is seeded with the default variants.
	resp, err := it.server.Client().Get(it.server.URL + "/api/styles")
	require.NoError(t, err)
	var list struct {
		Styles []struct {
			Variant int    `json:"variant"`
			Name    string `json:"name"`
		} `json:"styles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list.Styles, 3)
	assert.Equal(t, "skeleton", list.Styles[0].Name)

	// 2. Add a custom variant.
	resp = it.post(t, "/api/styles", `{"variant": 7, "name": "green", "color": "#00FF00", "width": 5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// 3. Select it through the camera channel.
	resp = it.post(t, "/api/channel/camera_channel", `{"method": "changePoseGraphic", "arguments": {"graphic": 7}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": true}`, string(body))

	variant, err := it.store.Settings().Get(session.KeyVariant)
	require.NoError(t, err)
	assert.Equal(t, "7", variant)

	// 4. The next frame is drawn in the new style.
	it.session.Tick()
	ov := it.session.LatestOverlay()
	require.True(t, ov.Visible)
	require.Len(t, ov.Skeletons, 1)
	require.Len(t, ov.Skeletons[0], overlay.NumSegments)
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, ov.Skeletons[0][0].Style.Color)
	assert.Equal(t, 5.0, ov.Skeletons[0][0].Style.Width)

	// 5. An unknown variant hides the overlay.
	resp = it.post(t, "/api/channel/camera_channel", `{"method": "changePoseGraphic", "arguments": {"graphic": 42}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	it.session.Tick()
	ov = it.session.LatestOverlay()
	assert.False(t, ov.Visible)
	assert.Empty(t, ov.Skeletons)
}

func TestAPI_SwitchCameraPersists(t *testing.T) {
	it := newIntegration(t)

	resp := it.post(t, "/api/channel/camera_channel", `{"method": "switchCamera"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, capture.Front, it.session.State().Facing)
	facing, err := it.store.Settings().Get(session.KeyFacing)
	require.NoError(t, err)
	assert.Equal(t, "front", facing)
}

func TestAPI_SnapshotVerifyWorkflow(t *testing.T) {
	it := newIntegration(t)

	landmarks, err := json.Marshal(map[string]any{
		"name":      "standing",
		"landmarks": detector.StandingPose().Positions(),
	})
	require.NoError(t, err)

	resp := it.post(t, "/api/snapshots", string(landmarks))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = it.post(t, "/api/snapshots/"+created.ID+"/verify", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verified struct {
		Match    bool `json:"match"`
		Segments int  `json:"segments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verified))
	assert.True(t, verified.Match)
	assert.Equal(t, overlay.NumSegments, verified.Segments)
}

func TestAPI_StreamServesAnnotatedFrames(t *testing.T) {
	it := newIntegration(t)
	it.session.Tick()
	require.NotEmpty(t, it.session.LatestJPEG())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, it.server.URL+"/api/stream", nil)
	require.NoError(t, err)

	resp, err := it.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	buf := make([]byte, 64)
	n, err := io.ReadAtLeast(resp.Body, buf, len("--frame\r\n"))
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "--frame")
}
