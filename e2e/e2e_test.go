package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/capture"
	"github.com/obitec/bodyway/internal/channel"
	"github.com/obitec/bodyway/internal/detector"
	"github.com/obitec/bodyway/internal/overlay"
	"github.com/obitec/bodyway/internal/server"
	"github.com/obitec/bodyway/internal/session"
	"github.com/obitec/bodyway/internal/store"
	"github.com/obitec/bodyway/testdata"
)

func readOverlay(t *testing.T, conn *websocket.Conn, match func(session.Overlay) bool) session.Overlay {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg server.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == server.MessageOverlay && match(*msg.Overlay) {
			return *msg.Overlay
		}
	}
}

func readResult(t *testing.T, conn *websocket.Conn) channel.Result {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg server.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == server.MessageResult {
			return *msg.Result
		}
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer st.Close()

	pose, err := testdata.LoadPose("tpose")
	require.NoError(t, err)

	frame := gocv.NewMatWithSize(pose.Height, pose.Width, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	det := detector.NewMockDetector()
	det.SetPoses([]detector.Pose{detector.NewPose(pose.Landmarks)})

	sess, err := session.New(session.Config{
		Camera:        cam,
		Detector:      det,
		Variants:      session.StoreVariants{Styles: st.Styles()},
		States:        st.Settings(),
		FPS:           30,
		MinLikelihood: 0.5,
		Initial:       session.State{Facing: capture.Back},
	})
	require.NoError(t, err)
	defer sess.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sess.Start(ctx))

	ts := httptest.NewServer(server.New(server.Config{Store: st, Session: sess}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/overlay", nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("StreamsSkeleton", func(t *testing.T) {
		ov := readOverlay(t, conn, func(ov session.Overlay) bool { return len(ov.Skeletons) > 0 })
		require.Len(t, ov.Skeletons[0], overlay.NumSegments)
		assert.Equal(t, "back", ov.Facing)
		// leftShoulder -> leftElbow, unmirrored.
		assert.InDelta(t, 360, ov.Skeletons[0][1].From.X, 1e-9)
		assert.InDelta(t, 430, ov.Skeletons[0][1].To.X, 1e-9)
	})

	t.Run("SwitchCameraMirrors", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(channel.MethodCall{Method: channel.MethodSwitchCamera}))
		assert.Equal(t, true, readResult(t, conn).Result)

		ov := readOverlay(t, conn, func(ov session.Overlay) bool {
			return ov.Facing == "front" && len(ov.Skeletons) > 0
		})
		assert.InDelta(t, 280, ov.Skeletons[0][1].From.X, 1e-9)
		assert.InDelta(t, 210, ov.Skeletons[0][1].To.X, 1e-9)
		assert.Equal(t, 2, cam.Switches(), "initial selection and the switch")
	})

	t.Run("HideOverlay", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(channel.MethodCall{
			Method:    channel.MethodChangePoseGraphic,
			Arguments: []byte(`{"graphic":1}`),
		}))
		assert.Equal(t, true, readResult(t, conn).Result)

		ov := readOverlay(t, conn, func(ov session.Overlay) bool { return !ov.Visible })
		assert.Empty(t, ov.Skeletons)
	})

	t.Run("StatePersisted", func(t *testing.T) {
		facing, err := st.Settings().Get(session.KeyFacing)
		require.NoError(t, err)
		assert.Equal(t, "front", facing)

		variant, err := st.Settings().Get(session.KeyVariant)
		require.NoError(t, err)
		assert.Equal(t, "1", variant)
	})

	t.Run("FramesEncoded", func(t *testing.T) {
		jpeg := sess.LatestJPEG()
		require.NotEmpty(t, jpeg)
		img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
		require.NoError(t, err)
		defer img.Close()
		assert.Equal(t, pose.Width, img.Cols())
		assert.Equal(t, pose.Height, img.Rows())
	})

	t.Run("DisposeClosesSocket", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(channel.MethodCall{Method: channel.MethodDispose}))
		assert.Equal(t, true, readResult(t, conn).Result)

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
				break
			}
		}

		assert.ErrorIs(t, sess.SwitchCamera(), session.ErrDisposed)
		assert.False(t, cam.IsOpen())
	})
}
