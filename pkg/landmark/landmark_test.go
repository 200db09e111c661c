package landmark

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDecodeDetection(t *testing.T) {
	msg := []byte(`{"faces":[{"bbox":[10,20,110,140],"landmarks":[[1.5,2],[3,4]]},{"landmarks":[]}]}`)

	det, err := decodeDetection(msg)
	require.NoError(t, err)
	require.Len(t, det.Faces, 2)

	first := det.Faces[0]
	require.NotNil(t, first.Box)
	assert.Equal(t, Box{X1: 10, Y1: 20, X2: 110, Y2: 140}, *first.Box)
	require.Len(t, first.Shape, 2)
	assert.Equal(t, 1.5, first.Shape[0].X)
	assert.Equal(t, 4.0, first.Shape[1].Y)

	assert.Nil(t, det.Faces[1].Box)
	assert.Empty(t, det.Faces[1].Shape)
}

func TestDecodeDetection_NoFaces(t *testing.T) {
	det, err := decodeDetection([]byte(`{"faces":[]}`))
	require.NoError(t, err)
	assert.Empty(t, det.Faces)
}

func TestDecodeDetection_Errors(t *testing.T) {
	_, err := decodeDetection([]byte(`{"error":"model not loaded"}`))
	assert.ErrorContains(t, err, "model not loaded")

	_, err = decodeDetection([]byte(`not json`))
	assert.Error(t, err)
}

func TestDetect_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			received <- msg
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"faces":[{"landmarks":[[7,8]]}]}`))
		}
	}))
	defer srv.Close()

	client := &webSocketClient{
		cfg: Config{
			URL:          "ws" + strings.TrimPrefix(srv.URL, "http"),
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		},
		log: quietLogger(),
	}
	defer client.Close()

	require.False(t, client.IsConnected())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Detect(ctx, []byte{0xFF, 0xD8, 0x01})
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, client.Reconnect())
	require.True(t, client.IsConnected())

	det, err := client.Detect(ctx, []byte{0xFF, 0xD8, 0x01})
	require.NoError(t, err)

	assert.Equal(t, []byte{0xFF, 0xD8, 0x01}, <-received)
	require.Len(t, det.Faces, 1)
	assert.Equal(t, 7.0, det.Faces[0].Shape[0].X)
}

func TestDetect_Unreachable(t *testing.T) {
	client := &webSocketClient{
		cfg: Config{URL: "ws://127.0.0.1:1/landmarks", ReadTimeout: time.Second, WriteTimeout: time.Second},
		log: quietLogger(),
	}

	_, err := client.Detect(context.Background(), []byte{0xFF, 0xD8})
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorContains(t, client.Reconnect(), "failed to connect")
	assert.False(t, client.IsConnected())
}

func TestDetect_DroppedConnectionReportsNotConnected(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.ReadMessage()
		conn.Close()
	}))
	defer srv.Close()

	client := &webSocketClient{
		cfg: Config{
			URL:          "ws" + strings.TrimPrefix(srv.URL, "http"),
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		},
		log: quietLogger(),
	}
	defer client.Close()

	require.NoError(t, client.Reconnect())

	_, err := client.Detect(context.Background(), []byte{0xFF, 0xD8})
	require.Error(t, err)
	assert.False(t, client.IsConnected())

	_, err = client.Detect(context.Background(), []byte{0xFF, 0xD8})
	assert.ErrorIs(t, err, ErrNotConnected)
}
