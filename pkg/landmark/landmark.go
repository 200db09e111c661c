// Package landmark is the client side of the face landmark service: JPEG
// frames go out over a websocket and per-face 68-point shapes come back.
package landmark

import (
	"DrowsyGuard/pkg/ear"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const defaultServiceURL = "ws://localhost:8000/api/v1/landmarks/ws"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotConnected = errors.New("not connected to landmark service")

type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Face struct {
	Box   *Box        `json:"box,omitempty"`
	Shape []ear.Point `json:"shape"`
}

type Detection struct {
	Faces []Face `json:"faces"`
}

type IProvider interface {
	Detect(ctx context.Context, frame []byte) (*Detection, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type Config struct {
	URL          string
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func ConfigFromEnv() Config {
	url := os.Getenv("LANDMARK_SERVICE_URL")
	if url == "" {
		url = defaultServiceURL
	}

	return Config{
		URL:          url,
		PingInterval: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

type webSocketClient struct {
	cfg  Config
	log  *logrus.Logger
	conn *websocket.Conn
	mu   sync.Mutex

	// roundTrip serializes request/response pairs on the shared connection.
	roundTrip sync.Mutex
}

// New returns a client and dials the service in the background; a failed
// first dial is retried on the next Detect.
func New(cfg Config, log *logrus.Logger) IProvider {
	client := &webSocketClient{
		cfg: cfg,
		log: log,
	}

	go client.connectInBackground()

	return client
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.WithFields(logrus.Fields{
			"url":   c.cfg.URL,
			"error": err.Error(),
		}).Warn("Initial connection to landmark service failed, will retry on demand")
		return
	}
	c.log.WithField("url", c.cfg.URL).Info("Connected to landmark service")
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.cfg.URL == "" {
		return fmt.Errorf("landmark service URL not configured")
	}

	c.log.WithField("url", c.cfg.URL).Debug("Connecting to landmark service")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.Errorf("Error sending pong to landmark service: %v", err)
		}
		return nil
	})

	c.conn = conn

	if c.cfg.PingInterval > 0 {
		go c.keepAlive(conn)
	}

	return nil
}

func (c *webSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.Warnf("Ping to landmark service failed, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *webSocketClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	return c.conn, nil
}

func (c *webSocketClient) dropConnection(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

// Detect sends one frame and waits for the matching landmark response.
// It returns ErrNotConnected when no connection is open; callers decide
// whether to Reconnect. A failed round trip drops the connection.
func (c *webSocketClient) Detect(ctx context.Context, frame []byte) (*Detection, error) {
	c.roundTrip.Lock()
	defer c.roundTrip.Unlock()

	conn, err := c.getConnection()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout))
	err = conn.WriteMessage(websocket.BinaryMessage, frame)
	c.mu.Unlock()
	if err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout))

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error reading landmark message: %w", err)
	}

	conn.SetReadDeadline(time.Time{})

	detection, err := decodeDetection(message)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"frame_size": len(frame),
		"faces":      len(detection.Faces),
	}).Debug("Received landmarks")

	return detection, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// wireFace is what the Python service emits: dlib rectangles as
// [x1, y1, x2, y2] and landmarks as [x, y] pairs.
type wireFace struct {
	BBox      []float64    `json:"bbox"`
	Landmarks [][2]float64 `json:"landmarks"`
}

type wireDetection struct {
	Faces []wireFace `json:"faces"`
	Error string     `json:"error,omitempty"`
}

func decodeDetection(message []byte) (*Detection, error) {
	var wire wireDetection
	if err := json.Unmarshal(message, &wire); err != nil {
		return nil, fmt.Errorf("error unmarshaling landmark response: %w", err)
	}

	if wire.Error != "" {
		return nil, fmt.Errorf("landmark service error: %s", wire.Error)
	}

	detection := &Detection{Faces: make([]Face, 0, len(wire.Faces))}
	for _, wf := range wire.Faces {
		face := Face{Shape: make([]ear.Point, len(wf.Landmarks))}
		for i, p := range wf.Landmarks {
			face.Shape[i] = ear.Point{X: p[0], Y: p[1]}
		}

		if len(wf.BBox) == 4 {
			face.Box = &Box{
				X1: wf.BBox[0],
				Y1: wf.BBox[1],
				X2: wf.BBox[2],
				Y2: wf.BBox[3],
			}
		}

		detection.Faces = append(detection.Faces, face)
	}

	return detection, nil
}
