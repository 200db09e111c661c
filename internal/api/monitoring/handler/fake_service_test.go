package monitoringHandler

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	"DrowsyGuard/pkg/alarm"
	"DrowsyGuard/pkg/ear"
	"context"
	"mime/multipart"
	"sync"
)

type fakeService struct {
	mu sync.Mutex

	session  *monitoring.SessionResponse
	err      error
	frameErr error
	alertAt  int
	frames   int

	startReq  monitoring.StartSessionRequest
	landmarks monitoring.LandmarksRequest
	videoName string
	recorded  int64
	sink      alarm.Sink
}

func (f *fakeService) StartSession(_ context.Context, req monitoring.StartSessionRequest) (*monitoring.SessionResponse, error) {
	f.startReq = req
	return f.session, f.err
}

func (f *fakeService) GetSession(_ context.Context, sessionID string) (*monitoring.SessionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.session
	resp.ID = sessionID
	return &resp, nil
}

func (f *fakeService) StopSession(_ context.Context, sessionID string) (*monitoring.SessionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.session
	resp.ID = sessionID
	resp.Status = string(entity.SessionStatusStopped)
	return &resp, nil
}

func (f *fakeService) ListAlerts(_ context.Context, sessionID string) ([]monitoring.AlertResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []monitoring.AlertResponse{{ID: "alert-1", SessionID: sessionID, Message: monitoring.AlertMessage}}, nil
}

func (f *fakeService) OpenStream(_ context.Context, sessionID string) (*entity.MonitoringSession, *ear.Classifier, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	session := &entity.MonitoringSession{ID: sessionID, Status: entity.SessionStatusActive}
	return session, ear.NewClassifier(ear.DefaultConfig()), nil
}

// ProcessFrame counts frames and alerts on frame alertAt, pushing the alarm
// through the registered sink first like the real alarm does.
func (f *fakeService) ProcessFrame(_ context.Context, session *entity.MonitoringSession, _ *ear.Classifier, _ []byte) (*entity.FrameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frameErr != nil {
		err := f.frameErr
		f.frameErr = nil
		return nil, err
	}

	f.frames++
	result := &entity.FrameResult{
		SessionID:    session.ID,
		Status:       monitoring.StatusMonitoring,
		FaceDetected: true,
		Counter:      f.frames,
	}

	if f.frames == f.alertAt {
		if f.sink != nil {
			_ = f.sink.Play(alarm.Event{Type: alarm.EventType, SessionID: session.ID, Message: monitoring.AlertMessage})
		}
		result.Alert = true
		result.Counter = 0
		result.Status = monitoring.StatusDrowsy
		session.Status = entity.SessionStatusAlerted
	}

	return result, nil
}

func (f *fakeService) RecordFrames(_ context.Context, _ string, frames int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded += frames
	return nil
}

func (f *fakeService) RegisterAlarmSink(_ string, sink alarm.Sink) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sink = nil
	}
}

func (f *fakeService) ProcessLandmarks(_ context.Context, sessionID string, req monitoring.LandmarksRequest) (*entity.FrameResult, error) {
	f.landmarks = req
	if f.err != nil {
		return nil, f.err
	}
	return &entity.FrameResult{SessionID: sessionID, Status: monitoring.StatusMonitoring, FaceDetected: len(req.Faces) > 0}, nil
}

func (f *fakeService) ProcessVideo(_ context.Context, sessionID string, file *multipart.FileHeader) (*monitoring.VideoSummary, error) {
	f.videoName = file.Filename
	if f.err != nil {
		return nil, f.err
	}
	return &monitoring.VideoSummary{SessionID: sessionID, FramesProcessed: 12, Status: string(entity.SessionStatusCompleted)}, nil
}

func (f *fakeService) TriggerAlert(context.Context, entity.MonitoringSession, float64) (*entity.AlertEvent, *entity.Delivery, error) {
	return nil, nil, monitoring.ErrSessionEnded
}

func (f *fakeService) recordedFrames() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorded
}
