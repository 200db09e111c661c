package entity

import (
	"DrowsyGuard/pkg/ear"
	"time"
)

type SessionSource uint8

const (
	SessionSourceUnknown SessionSource = 0
	SessionSourceWebcam  SessionSource = 1
	SessionSourceUpload  SessionSource = 2
)

var SessionSourceMap = map[SessionSource]string{
	SessionSourceWebcam: "webcam",
	SessionSourceUpload: "upload",
}

func (s SessionSource) String() string {
	return SessionSourceMap[s]
}

func (s SessionSource) Value() uint8 {
	return uint8(s)
}

func ParseSessionSource(v string) SessionSource {
	for source, name := range SessionSourceMap {
		if name == v {
			return source
		}
	}
	return SessionSourceUnknown
}

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusAlerted   SessionStatus = "alerted"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusStopped   SessionStatus = "stopped"
)

// IsActive reports whether frames may still be classified. Sessions end for
// good after their single alert.
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusActive
}

type MonitoringSession struct {
	ID              string
	PhoneNumber     string
	Source          SessionSource
	Status          SessionStatus
	VideoURL        string
	FramesProcessed int64
	Classifier      ear.Config
	CreatedAt       time.Time
	UpdatedAt       time.Time
	EndedAt         *time.Time
}

type AlertEvent struct {
	ID            string
	SessionID     string
	PhoneNumber   string
	Message       string
	Ratio         float64
	Delivered     bool
	DeliveryError string
	CreatedAt     time.Time
}

// FrameResult is what the presentation layer receives for every frame.
type FrameResult struct {
	SessionID    string      `json:"session_id"`
	Status       string      `json:"status"`
	FaceDetected bool        `json:"face_detected"`
	Ratio        float64     `json:"ratio"`
	Counter      int         `json:"counter"`
	Alert        bool        `json:"alert"`
	LeftEyeHull  []ear.Point `json:"left_eye_hull,omitempty"`
	RightEyeHull []ear.Point `json:"right_eye_hull,omitempty"`
	Message      string      `json:"message,omitempty"`
	Delivery     *Delivery   `json:"delivery,omitempty"`
}

type Delivery struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
	AlarmURL  string `json:"alarm_url,omitempty"`
}
