package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	monitoringRepository "DrowsyGuard/internal/api/monitoring/repository"
	"DrowsyGuard/internal/entity"
	"DrowsyGuard/pkg/ear"
	"DrowsyGuard/pkg/landmark"
	"DrowsyGuard/pkg/video"
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var jpegFrame = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0xFF, 0xD9}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]entity.MonitoringSession
	alerts   []entity.AlertEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]entity.MonitoringSession)}
}

func (f *fakeStore) CreateSession(_ context.Context, session entity.MonitoringSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeStore) GetSessionByID(_ context.Context, id string) (entity.MonitoringSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return entity.MonitoringSession{}, monitoring.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeStore) EndSession(_ context.Context, id string, from, to entity.SessionStatus, endedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.Status != from {
		return false, nil
	}
	session.Status = to
	session.EndedAt = &endedAt
	session.UpdatedAt = endedAt
	f.sessions[id] = session
	return true, nil
}

func (f *fakeStore) SetVideoURL(_ context.Context, id string, videoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.sessions[id]
	session.VideoURL = videoURL
	f.sessions[id] = session
	return nil
}

func (f *fakeStore) AddFramesProcessed(_ context.Context, id string, frames int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.sessions[id]
	session.FramesProcessed += frames
	f.sessions[id] = session
	return nil
}

func (f *fakeStore) CreateAlert(_ context.Context, alert entity.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeStore) GetAlertsBySessionID(_ context.Context, sessionID string) ([]entity.AlertEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var alerts []entity.AlertEvent
	for _, alert := range f.alerts {
		if alert.SessionID == sessionID {
			alerts = append(alerts, alert)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.Before(alerts[j].CreatedAt) })
	return alerts, nil
}

func (f *fakeStore) session(t *testing.T, id string) entity.MonitoringSession {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	require.True(t, ok, "session %s not stored", id)
	return session
}

type fakeRepo struct {
	store *fakeStore
}

func (r *fakeRepo) NewClient(bool) (monitoringRepository.Client, error) {
	nop := func() error { return nil }
	return monitoringRepository.Client{
		Sessions: r.store,
		Alerts:   r.store,
		Commit:   nop,
		Rollback: nop,
	}, nil
}

type fakeLandmarks struct {
	mu         sync.Mutex
	shape      []ear.Point
	err        error
	connected  bool
	calls      int
	reconnects int
}

func (f *fakeLandmarks) Detect(_ context.Context, _ []byte) (*landmark.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.connected {
		return nil, landmark.ErrNotConnected
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.shape == nil {
		return &landmark.Detection{}, nil
	}
	return &landmark.Detection{Faces: []landmark.Face{{Shape: f.shape}}}, nil
}

func (f *fakeLandmarks) IsConnected() bool { return f.connected }

func (f *fakeLandmarks) Reconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	f.connected = true
	return nil
}

func (f *fakeLandmarks) Close() {}

func (f *fakeLandmarks) setShape(shape []ear.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shape = shape
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, phoneNumber, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phoneNumber+": "+message)
	return f.err
}

func (f *fakeSender) Disconnect() error { return nil }
func (f *fakeSender) IsConnected() bool { return f.err == nil }

type fakeRedis struct {
	mu     sync.Mutex
	states map[string]ear.State
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{states: make(map[string]ear.State)}
}

func (f *fakeRedis) GetState(_ context.Context, sessionID string) (ear.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ear.State{}, f.err
	}
	return f.states[sessionID], nil
}

func (f *fakeRedis) SetState(_ context.Context, sessionID string, state ear.State, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[sessionID] = state
	return f.err
}

func (f *fakeRedis) DeleteState(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, sessionID)
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return f.err }
func (f *fakeRedis) Close() error               { return nil }

func (f *fakeRedis) state(sessionID string) (ear.State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[sessionID]
	return state, ok
}

type fakeS3 struct {
	uploads []string
	err     error
}

func (f *fakeS3) UploadFile(file *multipart.FileHeader, prefix string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://drowsyguard.s3.amazonaws.com/" + prefix + "/" + file.Filename
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeS3) PresignKey(string, time.Duration) (string, error) { return "", errors.New("not used") }
func (f *fakeS3) PresignUrl(string) (string, error)                { return "", errors.New("not used") }

// fakeDecoder hands out the same JPEG frame a fixed number of times.
type fakeDecoder struct {
	frames    int
	err       error
	delivered int
}

func (f *fakeDecoder) Decode(_ context.Context, path string, fn video.FrameFunc) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	for i := 0; i < f.frames; i++ {
		f.delivered++
		more, err := fn(jpegFrame)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// eye returns an eye shape whose aspect ratio is exactly ratio.
func eye(x0, ratio float64) []ear.Point {
	h := 1.5 * ratio
	return []ear.Point{
		{X: x0, Y: 0},
		{X: x0 + 1, Y: h},
		{X: x0 + 2, Y: h},
		{X: x0 + 3, Y: 0},
		{X: x0 + 2, Y: -h},
		{X: x0 + 1, Y: -h},
	}
}

func faceShape(ratio float64) []ear.Point {
	shape := make([]ear.Point, ear.IBUG68.Points)
	for i := range shape {
		shape[i] = ear.Point{X: float64(i), Y: 50}
	}
	copy(shape[ear.IBUG68.RightEye[0]:ear.IBUG68.RightEye[1]], eye(0, ratio))
	copy(shape[ear.IBUG68.LeftEye[0]:ear.IBUG68.LeftEye[1]], eye(10, ratio))
	return shape
}

func multipartHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	files := req.MultipartForm.File["video"]
	require.Len(t, files, 1)
	return files[0]
}
