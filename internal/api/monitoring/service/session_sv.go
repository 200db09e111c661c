package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/alarm"
	"DrowsyGuard/pkg/ear"
	"DrowsyGuard/pkg/whatsapp"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *monitoringService) StartSession(ctx context.Context, req monitoring.StartSessionRequest) (*monitoring.SessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	phone, err := whatsapp.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, monitoring.ErrInvalidPhoneNumber
	}

	source := entity.SessionSourceWebcam
	if req.Source != "" {
		source = entity.ParseSessionSource(req.Source)
		if source == entity.SessionSourceUnknown {
			return nil, monitoring.ErrInvalidSource
		}
	}

	now := time.Now()
	sessionID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate session ID")
		return nil, err
	}

	session := entity.MonitoringSession{
		ID:          sessionID,
		PhoneNumber: phone,
		Source:      source,
		Status:      entity.SessionStatusActive,
		Classifier:  s.config.Classifier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	if err := repo.Sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": session.ID,
		"source":     source.String(),
		"phone":      whatsapp.MaskPhoneNumber(phone),
	}).Info("Monitoring session started")

	return makeSessionResponse(session), nil
}

func (s *monitoringService) GetSession(ctx context.Context, sessionID string) (*monitoring.SessionResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return makeSessionResponse(session), nil
}

func (s *monitoringService) StopSession(ctx context.Context, sessionID string) (*monitoring.SessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	stopped, err := repo.Sessions.EndSession(ctx, sessionID, entity.SessionStatusActive, entity.SessionStatusStopped, time.Now())
	if err != nil {
		return nil, err
	}

	session, err := repo.Sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !stopped {
		return nil, monitoring.ErrSessionEnded
	}

	if err := s.redis.DeleteState(ctx, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to clear classifier state")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
	}).Info("Monitoring session stopped")

	return makeSessionResponse(session), nil
}

func (s *monitoringService) ListAlerts(ctx context.Context, sessionID string) ([]monitoring.AlertResponse, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	if _, err := repo.Sessions.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	alerts, err := repo.Alerts.GetAlertsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]monitoring.AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, makeAlertResponse(alert))
	}

	return responses, nil
}

func (s *monitoringService) OpenStream(ctx context.Context, sessionID string) (*entity.MonitoringSession, *ear.Classifier, error) {
	session, err := s.getActiveSession(ctx, sessionID, entity.SessionSourceWebcam)
	if err != nil {
		return nil, nil, err
	}

	return &session, ear.NewClassifier(s.classifierConfig(session)), nil
}

func (s *monitoringService) RecordFrames(ctx context.Context, sessionID string, frames int64) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	return repo.Sessions.AddFramesProcessed(ctx, sessionID, frames)
}

func (s *monitoringService) RegisterAlarmSink(sessionID string, sink alarm.Sink) func() {
	return s.alarm.Register(sessionID, sink)
}

func (s *monitoringService) getSession(ctx context.Context, sessionID string) (entity.MonitoringSession, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return entity.MonitoringSession{}, err
	}

	return repo.Sessions.GetSessionByID(ctx, sessionID)
}

func (s *monitoringService) getActiveSession(ctx context.Context, sessionID string, source entity.SessionSource) (entity.MonitoringSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return entity.MonitoringSession{}, err
	}

	if !session.Status.IsActive() {
		return entity.MonitoringSession{}, monitoring.ErrSessionEnded
	}

	if session.Source != source {
		return entity.MonitoringSession{}, monitoring.ErrSessionSourceMismatch
	}

	return session, nil
}
