package monitoringRepository

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"context"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"time"
)

func (r *sessionRepository) CreateSession(ctx context.Context, session entity.MonitoringSession) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":               session.ID,
		"phone_number":     session.PhoneNumber,
		"source":           session.Source.Value(),
		"status":           string(session.Status),
		"video_url":        nullString(session.VideoURL),
		"frames_processed": session.FramesProcessed,
		"ear_threshold":    session.Classifier.Threshold,
		"frame_limit":      session.Classifier.FrameLimit,
		"created_at":       session.CreatedAt,
		"updated_at":       session.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateSession")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Database error when creating monitoring session")
		return err
	}

	return nil
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (entity.MonitoringSession, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var sessionDB MonitoringSessionDB

	query, args, err := sqlx.Named(queryGetSessionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.MonitoringSession{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&sessionDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": id,
			}).Warn("GetSessionByID no rows found")
			return entity.MonitoringSession{}, monitoring.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.MonitoringSession{}, err
	}

	return makeMonitoringSession(sessionDB), nil
}

func (r *sessionRepository) EndSession(ctx context.Context, id string, from, to entity.SessionStatus, endedAt time.Time) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":          id,
		"from_status": string(from),
		"to_status":   string(to),
		"ended_at":    endedAt,
	}

	query, args, err := sqlx.Named(queryEndSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("EndSession named query preparation err")
		return false, err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("EndSession execution err")
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *sessionRepository) SetVideoURL(ctx context.Context, id string, videoURL string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         id,
		"video_url":  nullString(videoURL),
		"updated_at": time.Now(),
	}

	query, args, err := sqlx.Named(querySetVideoURL, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("SetVideoURL named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("SetVideoURL execution err")
		return err
	}

	return nil
}

func (r *sessionRepository) AddFramesProcessed(ctx context.Context, id string, frames int64) error {
	if frames <= 0 {
		return nil
	}

	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         id,
		"frames":     frames,
		"updated_at": time.Now(),
	}

	query, args, err := sqlx.Named(queryAddFramesProcessed, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("AddFramesProcessed named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("AddFramesProcessed execution err")
		return err
	}

	return nil
}
