package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/entity"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/ear"
	"DrowsyGuard/pkg/utils"
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *monitoringService) ProcessVideo(ctx context.Context, sessionID string, file *multipart.FileHeader) (*monitoring.VideoSummary, error) {
	requestID := contextPkg.GetRequestID(ctx)

	session, err := s.getActiveSession(ctx, sessionID, entity.SessionSourceUpload)
	if err != nil {
		return nil, err
	}

	if err := s.utils.ValidateVideoFile(file); err != nil {
		if errors.Is(err, utils.ErrFileTooLarge) {
			return nil, monitoring.ErrVideoTooLarge
		}
		return nil, monitoring.ErrInvalidVideoFile
	}

	s.archiveVideo(ctx, sessionID, file)

	path, cleanup, err := s.utils.SaveTempFile(file)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store uploaded video")
		return nil, err
	}
	defer cleanup()

	summary := &monitoring.VideoSummary{SessionID: sessionID}
	classifier := ear.NewClassifier(s.classifierConfig(session))

	// frameErr keeps the domain error of a failed frame apart from decoder
	// failures, which both surface through Decode.
	var frameErr error
	decodeErr := s.decoder.Decode(ctx, path, func(frame []byte) (bool, error) {
		summary.FramesProcessed++

		detection, err := s.detect(ctx, frame)
		if err != nil {
			frameErr = err
			return false, err
		}
		if len(detection.Faces) == 0 {
			return true, nil
		}
		summary.FramesWithFace++

		result, _, err := s.evaluate(sessionID, detection.Faces[0].Shape, classifier.Observe)
		if err != nil {
			frameErr = err
			return false, err
		}
		if !result.Alert {
			return true, nil
		}

		alert, err := s.raiseAlert(ctx, &session, result)
		if err != nil {
			frameErr = err
			return false, err
		}

		alertResponse := makeAlertResponse(*alert)
		summary.Alerted = true
		summary.Alert = &alertResponse
		return false, nil
	})

	s.recordFrames(ctx, sessionID, int64(summary.FramesProcessed))

	if decodeErr != nil {
		if frameErr != nil {
			return nil, frameErr
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"frames":     summary.FramesProcessed,
			"error":      decodeErr.Error(),
		}).Error("Video decoding failed")
		return nil, monitoring.ErrVideoDecodeFailed
	}

	if !summary.Alerted {
		if err := s.completeSession(ctx, sessionID); err != nil {
			return nil, err
		}
		session.Status = entity.SessionStatusCompleted
	}

	summary.Status = string(session.Status)

	s.log.WithFields(logrus.Fields{
		"request_id":       requestID,
		"session_id":       sessionID,
		"frames":           summary.FramesProcessed,
		"frames_with_face": summary.FramesWithFace,
		"alerted":          summary.Alerted,
	}).Info("Video processed")

	return summary, nil
}

// archiveVideo keeps a copy of the upload in S3. Monitoring goes on without
// it when storage is unavailable.
func (s *monitoringService) archiveVideo(ctx context.Context, sessionID string, file *multipart.FileHeader) {
	if s.s3Client == nil {
		return
	}

	requestID := contextPkg.GetRequestID(ctx)

	videoURL, err := s.s3Client.UploadFile(file, "videos/"+sessionID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to archive video")
		return
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return
	}

	if err := repo.Sessions.SetVideoURL(ctx, sessionID, videoURL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to store video URL")
	}
}

func (s *monitoringService) completeSession(ctx context.Context, sessionID string) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	completed, err := repo.Sessions.EndSession(ctx, sessionID, entity.SessionStatusActive, entity.SessionStatusCompleted, time.Now())
	if err != nil {
		return err
	}
	if !completed {
		return monitoring.ErrSessionEnded
	}

	return nil
}
