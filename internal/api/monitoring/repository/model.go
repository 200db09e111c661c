package monitoringRepository

import (
	"DrowsyGuard/internal/entity"
	"DrowsyGuard/pkg/ear"
	"database/sql"
	"time"
)

type MonitoringSessionDB struct {
	ID              sql.NullString  `db:"id"`
	PhoneNumber     sql.NullString  `db:"phone_number"`
	Source          sql.NullInt16   `db:"source"`
	Status          sql.NullString  `db:"status"`
	VideoURL        sql.NullString  `db:"video_url"`
	FramesProcessed sql.NullInt64   `db:"frames_processed"`
	EARThreshold    sql.NullFloat64 `db:"ear_threshold"`
	FrameLimit      sql.NullInt32   `db:"frame_limit"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	EndedAt         sql.NullTime    `db:"ended_at"`
}

type AlertEventDB struct {
	ID            sql.NullString  `db:"id"`
	SessionID     sql.NullString  `db:"session_id"`
	PhoneNumber   sql.NullString  `db:"phone_number"`
	Message       sql.NullString  `db:"message"`
	Ratio         sql.NullFloat64 `db:"ratio"`
	Delivered     sql.NullBool    `db:"delivered"`
	DeliveryError sql.NullString  `db:"delivery_error"`
	CreatedAt     time.Time       `db:"created_at"`
}

func makeMonitoringSession(row MonitoringSessionDB) entity.MonitoringSession {
	session := entity.MonitoringSession{
		ID:              row.ID.String,
		PhoneNumber:     row.PhoneNumber.String,
		Source:          entity.SessionSource(row.Source.Int16),
		Status:          entity.SessionStatus(row.Status.String),
		VideoURL:        row.VideoURL.String,
		FramesProcessed: row.FramesProcessed.Int64,
		Classifier: ear.Config{
			Threshold:  row.EARThreshold.Float64,
			FrameLimit: int(row.FrameLimit.Int32),
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if row.EndedAt.Valid {
		endedAt := row.EndedAt.Time
		session.EndedAt = &endedAt
	}

	return session
}

func makeAlertEvent(row AlertEventDB) entity.AlertEvent {
	return entity.AlertEvent{
		ID:            row.ID.String,
		SessionID:     row.SessionID.String,
		PhoneNumber:   row.PhoneNumber.String,
		Message:       row.Message.String,
		Ratio:         row.Ratio.Float64,
		Delivered:     row.Delivered.Bool,
		DeliveryError: row.DeliveryError.String,
		CreatedAt:     row.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
