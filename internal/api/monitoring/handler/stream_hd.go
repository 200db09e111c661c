package monitoringHandler

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/internal/middleware"
	"DrowsyGuard/pkg/alarm"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/handlerUtil"
	"DrowsyGuard/pkg/log"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// streamConn serialises writes: alarm events may be pushed from another
// request's goroutine while the read loop is writing frame results.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *streamConn) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(v); err != nil {
		return err
	}
	return s.conn.SetWriteDeadline(time.Time{})
}

func (s *streamConn) close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
}

// Play implements alarm.Sink.
func (s *streamConn) Play(evt alarm.Event) error {
	return s.writeJSON(evt)
}

func streamError(err error) monitoring.StreamError {
	return monitoring.StreamError{
		Error: err.Error(),
		Code:  handlerUtil.Code(err),
	}
}

func (h *MonitoringHandler) handleStream(c *websocket.Conn) {
	sessionID := c.Params("id")
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	ctx := contextPkg.WithSessionID(contextPkg.WithRequestID(context.Background(), requestID), sessionID)
	logger := h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": sessionID,
	})

	logger.Info("Monitoring stream connected")
	defer logger.Info("Monitoring stream disconnected")

	conn := &streamConn{conn: c}

	session, classifier, err := h.monitoringService.OpenStream(ctx, sessionID)
	if err != nil {
		logger.WithField("error", err.Error()).Warn("Refusing monitoring stream")
		_ = conn.writeJSON(streamError(err))
		conn.close(err.Error())
		return
	}

	unregister := h.monitoringService.RegisterAlarmSink(sessionID, conn)
	defer unregister()

	var frames int64
	defer func() {
		if err := h.monitoringService.RecordFrames(ctx, sessionID, frames); err != nil {
			logger.WithField("error", err.Error()).Warn("Failed to record streamed frames")
		}
	}()

	c.SetPingHandler(func(data string) error {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			return
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Monitoring stream error: %v", err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		frames++
		result, err := h.monitoringService.ProcessFrame(ctx, session, classifier, message)
		if err != nil {
			if !h.reportFrameError(logger, conn, err) {
				return
			}
			continue
		}

		if err := conn.writeJSON(result); err != nil {
			logger.Errorf("Error writing frame result: %v", err)
			return
		}

		if result.Alert {
			conn.close(monitoring.StatusDrowsy)
			return
		}
	}
}

// reportFrameError tells the client why a frame was rejected and reports
// whether the stream can go on.
func (h *MonitoringHandler) reportFrameError(logger *logrus.Entry, conn *streamConn, err error) bool {
	logger.WithField("error", err.Error()).Warn("Error processing frame")

	if writeErr := conn.writeJSON(streamError(err)); writeErr != nil {
		logger.Errorf("Error sending error response: %v", writeErr)
		return false
	}

	switch {
	case errors.Is(err, monitoring.ErrInvalidFrame), errors.Is(err, monitoring.ErrInvalidShape):
		return true
	case errors.Is(err, monitoring.ErrLandmarkUnavailable):
		return true
	default:
		conn.close(err.Error())
		return false
	}
}
