package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/whatsapp"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TriggerAlert ends an active session as alerted, then sounds the alarm and
// sends the WhatsApp message. Only the caller that wins the status change
// delivers anything; every other caller gets ErrSessionEnded. A failed
// delivery is recorded on the alert and in the returned Delivery.
func (s *monitoringService) TriggerAlert(ctx context.Context, session entity.MonitoringSession, ratio float64) (*entity.AlertEvent, *entity.Delivery, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	alertID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return nil, nil, err
	}

	won, err := repo.Sessions.EndSession(ctx, session.ID, entity.SessionStatusActive, entity.SessionStatusAlerted, now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to mark session alerted")
		return nil, nil, err
	}
	if !won {
		return nil, nil, monitoring.ErrSessionEnded
	}

	evt := s.alarm.Trigger(ctx, session.ID, monitoring.AlertMessage)
	delivery := &entity.Delivery{AlarmURL: evt.AssetURL}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	sendErr := s.whatsapp.SendMessage(sendCtx, session.PhoneNumber, monitoring.AlertMessage)
	cancel()

	if sendErr != nil {
		delivery.Error = sendErr.Error()
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"phone":      whatsapp.MaskPhoneNumber(session.PhoneNumber),
			"error":      sendErr.Error(),
		}).Warn("Failed to deliver WhatsApp alert")
	} else {
		delivery.Delivered = true
	}

	alert := entity.AlertEvent{
		ID:            alertID,
		SessionID:     session.ID,
		PhoneNumber:   session.PhoneNumber,
		Message:       monitoring.AlertMessage,
		Ratio:         ratio,
		Delivered:     delivery.Delivered,
		DeliveryError: delivery.Error,
		CreatedAt:     now,
	}

	if err := repo.Alerts.CreateAlert(ctx, alert); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to persist alert event")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": session.ID,
		"ratio":      ratio,
		"delivered":  delivery.Delivered,
	}).Warn("Drowsiness alert raised")

	return &alert, delivery, nil
}

// raiseAlert runs TriggerAlert for a frame that crossed the limit and attaches
// the delivery report to the frame result.
func (s *monitoringService) raiseAlert(ctx context.Context, session *entity.MonitoringSession, result *entity.FrameResult) (*entity.AlertEvent, error) {
	alert, delivery, err := s.TriggerAlert(ctx, *session, result.Ratio)
	if err != nil {
		return nil, err
	}

	result.Delivery = delivery
	session.Status = entity.SessionStatusAlerted
	return alert, nil
}
