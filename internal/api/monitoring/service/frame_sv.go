package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/ear"
	"DrowsyGuard/pkg/landmark"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// observeFunc advances some classifier state by one frame.
type observeFunc func(left, right ear.EyeShape) ear.Result

func (s *monitoringService) ProcessFrame(ctx context.Context, session *entity.MonitoringSession, classifier *ear.Classifier, frame []byte) (*entity.FrameResult, error) {
	if !session.Status.IsActive() {
		return nil, monitoring.ErrSessionEnded
	}

	if err := s.utils.ValidateFrame(frame); err != nil {
		return nil, monitoring.ErrInvalidFrame
	}

	detection, err := s.detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	if len(detection.Faces) == 0 {
		return noFaceResult(session.ID, classifier.State()), nil
	}

	result, _, err := s.evaluate(session.ID, detection.Faces[0].Shape, classifier.Observe)
	if err != nil {
		return nil, err
	}

	if result.Alert {
		if _, err := s.raiseAlert(ctx, session, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *monitoringService) ProcessLandmarks(ctx context.Context, sessionID string, req monitoring.LandmarksRequest) (*entity.FrameResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	session, err := s.getActiveSession(ctx, sessionID, entity.SessionSourceWebcam)
	if err != nil {
		return nil, err
	}

	state, err := s.redis.GetState(ctx, sessionID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to load classifier state")
		return nil, monitoring.ErrStateStoreFailure
	}

	if len(req.Faces) == 0 {
		s.recordFrames(ctx, sessionID, 1)
		return noFaceResult(sessionID, state), nil
	}

	cfg := s.classifierConfig(session)
	result, next, err := s.evaluate(sessionID, req.Faces[0].Shape, func(left, right ear.EyeShape) ear.Result {
		return ear.ProcessFrame(left, right, state, cfg)
	})
	if err != nil {
		return nil, err
	}

	s.recordFrames(ctx, sessionID, 1)

	if result.Alert {
		if _, err := s.raiseAlert(ctx, &session, result); err != nil {
			return nil, err
		}

		if err := s.redis.DeleteState(ctx, sessionID); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Failed to clear classifier state after alert")
		}

		return result, nil
	}

	if err := s.redis.SetState(ctx, sessionID, next.State, s.config.StateTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store classifier state")
		return nil, monitoring.ErrStateStoreFailure
	}

	return result, nil
}

// evaluate runs one classification step on a 68-point face shape and builds
// the presentation payload for it.
func (s *monitoringService) evaluate(sessionID string, shape []ear.Point, observe observeFunc) (*entity.FrameResult, ear.Result, error) {
	left, right, err := s.config.Convention.Eyes(shape)
	if err != nil {
		return nil, ear.Result{}, monitoring.ErrInvalidShape
	}

	res := observe(left, right)

	result := &entity.FrameResult{
		SessionID:    sessionID,
		Status:       monitoring.StatusMonitoring,
		FaceDetected: true,
		Ratio:        res.Ratio,
		Counter:      res.State.Counter,
		Alert:        res.Alert,
		LeftEyeHull:  ear.Hull(left),
		RightEyeHull: ear.Hull(right),
	}

	if res.Alert {
		result.Status = monitoring.StatusDrowsy
		result.Message = monitoring.AlertMessage
	}

	return result, res, nil
}

// detect asks the landmark service for faces, reconnecting once if the
// connection was lost since the previous frame.
func (s *monitoringService) detect(ctx context.Context, frame []byte) (*landmark.Detection, error) {
	requestID := contextPkg.GetRequestID(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.config.DetectTimeout)
	defer cancel()

	detection, err := s.landmarks.Detect(ctx, frame)
	if errors.Is(err, landmark.ErrNotConnected) {
		if rerr := s.landmarks.Reconnect(); rerr == nil {
			detection, err = s.landmarks.Detect(ctx, frame)
		}
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": contextPkg.GetSessionID(ctx),
			"error":      err.Error(),
		}).Error("Landmark detection failed")
		return nil, monitoring.ErrLandmarkUnavailable
	}

	return detection, nil
}

func (s *monitoringService) recordFrames(ctx context.Context, sessionID string, frames int64) {
	if err := s.RecordFrames(ctx, sessionID, frames); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to record processed frames")
	}
}

func noFaceResult(sessionID string, state ear.State) *entity.FrameResult {
	return &entity.FrameResult{
		SessionID: sessionID,
		Status:    monitoring.StatusNoFace,
		Counter:   state.Counter,
	}
}
