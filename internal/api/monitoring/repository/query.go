package monitoringRepository

const (
	queryCreateSession = `
		INSERT INTO monitoring_sessions (
			id, phone_number, source, status, video_url, frames_processed,
			ear_threshold, frame_limit, created_at, updated_at
		) VALUES (
			:id, :phone_number, :source, :status, :video_url, :frames_processed,
			:ear_threshold, :frame_limit, :created_at, :updated_at
		)
	`

	queryGetSessionByID = `
		SELECT
			id, phone_number, source, status, video_url, frames_processed,
			ear_threshold, frame_limit, created_at, updated_at, ended_at
		FROM monitoring_sessions
		WHERE id = :id
	`

	queryEndSession = `
		UPDATE monitoring_sessions
		SET
			status = :to_status,
			ended_at = :ended_at,
			updated_at = :ended_at
		WHERE id = :id AND status = :from_status
	`

	querySetVideoURL = `
		UPDATE monitoring_sessions
		SET
			video_url = :video_url,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryAddFramesProcessed = `
		UPDATE monitoring_sessions
		SET
			frames_processed = frames_processed + :frames,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryCreateAlert = `
		INSERT INTO alert_events (
			id, session_id, phone_number, message, ratio,
			delivered, delivery_error, created_at
		) VALUES (
			:id, :session_id, :phone_number, :message, :ratio,
			:delivered, :delivery_error, :created_at
		)
	`

	queryGetAlertsBySessionID = `
		SELECT
			id, session_id, phone_number, message, ratio,
			delivered, delivery_error, created_at
		FROM alert_events
		WHERE session_id = :session_id
		ORDER BY created_at ASC
	`
)
