// Package alarm resolves the audible alarm asset and pushes it to whichever
// client is watching a session, so the browser plays it locally.
package alarm

import (
	"DrowsyGuard/pkg/s3"
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	EventType       = "alarm"
	DefaultAssetURL = "/assets/alarm.wav"
)

type Event struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	AssetURL    string    `json:"asset_url"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Sink is a client connection able to play the alarm.
type Sink interface {
	Play(evt Event) error
}

type IAlarm interface {
	Register(sessionID string, sink Sink) (unregister func())
	Trigger(ctx context.Context, sessionID, message string) Event
}

type alarm struct {
	log      *logrus.Logger
	s3       s3.ItfS3
	assetKey string
	assetURL string

	mu    sync.RWMutex
	sinks map[string]Sink
}

// New serves ALARM_ASSET_KEY from S3 when both are available and falls back
// to the bundled static asset otherwise.
func New(log *logrus.Logger, s3Client s3.ItfS3) IAlarm {
	assetURL := os.Getenv("ALARM_ASSET_URL")
	if assetURL == "" {
		assetURL = DefaultAssetURL
	}

	return &alarm{
		log:      log,
		s3:       s3Client,
		assetKey: os.Getenv("ALARM_ASSET_KEY"),
		assetURL: assetURL,
		sinks:    make(map[string]Sink),
	}
}

func (a *alarm) Register(sessionID string, sink Sink) func() {
	a.mu.Lock()
	a.sinks[sessionID] = sink
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		if a.sinks[sessionID] == sink {
			delete(a.sinks, sessionID)
		}
		a.mu.Unlock()
	}
}

// Trigger is fire-and-forget: sink failures are logged, never returned.
func (a *alarm) Trigger(ctx context.Context, sessionID, message string) Event {
	evt := Event{
		Type:        EventType,
		SessionID:   sessionID,
		AssetURL:    a.resolveAssetURL(),
		Message:     message,
		TriggeredAt: time.Now(),
	}

	a.mu.RLock()
	sink, ok := a.sinks[sessionID]
	a.mu.RUnlock()

	if !ok {
		a.log.WithField("session_id", sessionID).Debug("No alarm sink registered, alarm returned to caller only")
		return evt
	}

	if err := sink.Play(evt); err != nil {
		a.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to deliver alarm to client")
	}

	return evt
}

func (a *alarm) resolveAssetURL() string {
	if a.s3 == nil || a.assetKey == "" {
		return a.assetURL
	}

	url, err := a.s3.PresignKey(a.assetKey, 10*time.Minute)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"asset_key": a.assetKey,
			"error":     err.Error(),
		}).Warn("Failed to presign alarm asset, using static asset")
		return a.assetURL
	}

	return url
}
