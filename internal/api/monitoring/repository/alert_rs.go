package monitoringRepository

import (
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *alertRepository) CreateAlert(ctx context.Context, alert entity.AlertEvent) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":             alert.ID,
		"session_id":     alert.SessionID,
		"phone_number":   alert.PhoneNumber,
		"message":        alert.Message,
		"ratio":          alert.Ratio,
		"delivered":      alert.Delivered,
		"delivery_error": nullString(alert.DeliveryError),
		"created_at":     alert.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateAlert, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateAlert")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": alert.SessionID,
			"error":      err.Error(),
		}).Error("Database error when creating alert event")
		return err
	}

	return nil
}

func (r *alertRepository) GetAlertsBySessionID(ctx context.Context, sessionID string) ([]entity.AlertEvent, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetAlertsBySessionID, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAlertsBySessionID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []AlertEventDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("GetAlertsBySessionID execution err")
		return nil, err
	}

	alerts := make([]entity.AlertEvent, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, makeAlertEvent(row))
	}

	return alerts, nil
}
