package monitoringService

import (
	"DrowsyGuard/internal/api/monitoring"
	monitoringRepository "DrowsyGuard/internal/api/monitoring/repository"
	"DrowsyGuard/internal/entity"
	"DrowsyGuard/pkg/alarm"
	"DrowsyGuard/pkg/ear"
	"DrowsyGuard/pkg/landmark"
	"DrowsyGuard/pkg/redis"
	"DrowsyGuard/pkg/s3"
	"DrowsyGuard/pkg/utils"
	"DrowsyGuard/pkg/video"
	"DrowsyGuard/pkg/whatsapp"
	"context"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
)

type IMonitoringService interface {
	StartSession(ctx context.Context, req monitoring.StartSessionRequest) (*monitoring.SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*monitoring.SessionResponse, error)
	StopSession(ctx context.Context, sessionID string) (*monitoring.SessionResponse, error)
	ListAlerts(ctx context.Context, sessionID string) ([]monitoring.AlertResponse, error)

	// OpenStream loads an active webcam session and a fresh classifier
	// owned by the caller for the lifetime of one connection.
	OpenStream(ctx context.Context, sessionID string) (*entity.MonitoringSession, *ear.Classifier, error)
	ProcessFrame(ctx context.Context, session *entity.MonitoringSession, classifier *ear.Classifier, frame []byte) (*entity.FrameResult, error)
	RecordFrames(ctx context.Context, sessionID string, frames int64) error
	RegisterAlarmSink(sessionID string, sink alarm.Sink) (unregister func())

	ProcessLandmarks(ctx context.Context, sessionID string, req monitoring.LandmarksRequest) (*entity.FrameResult, error)
	ProcessVideo(ctx context.Context, sessionID string, file *multipart.FileHeader) (*monitoring.VideoSummary, error)

	TriggerAlert(ctx context.Context, session entity.MonitoringSession, ratio float64) (*entity.AlertEvent, *entity.Delivery, error)
}

type MonitoringConfig struct {
	Classifier    ear.Config
	Convention    ear.Convention
	StateTTL      time.Duration
	DetectTimeout time.Duration
	SendTimeout   time.Duration
}

func DefaultMonitoringConfig() *MonitoringConfig {
	return &MonitoringConfig{
		Classifier:    ear.DefaultConfig(),
		Convention:    ear.IBUG68,
		StateTTL:      30 * time.Minute,
		DetectTimeout: 5 * time.Second,
		SendTimeout:   15 * time.Second,
	}
}

type monitoringService struct {
	log       *logrus.Logger
	repo      monitoringRepository.Repository
	landmarks landmark.IProvider
	whatsapp  whatsapp.IWhatsappSender
	redis     redis.IRedis
	alarm     alarm.IAlarm
	s3Client  s3.ItfS3
	decoder   video.IDecoder
	utils     utils.IUtils
	config    *MonitoringConfig
}

func NewMonitoringService(
	log *logrus.Logger,
	repo monitoringRepository.Repository,
	landmarks landmark.IProvider,
	whatsapp whatsapp.IWhatsappSender,
	redis redis.IRedis,
	alarm alarm.IAlarm,
	s3Client s3.ItfS3,
	decoder video.IDecoder,
	utils utils.IUtils,
	config *MonitoringConfig,
) IMonitoringService {
	if config == nil {
		config = DefaultMonitoringConfig()
	}

	return &monitoringService{
		log:       log,
		repo:      repo,
		landmarks: landmarks,
		whatsapp:  whatsapp,
		redis:     redis,
		alarm:     alarm,
		s3Client:  s3Client,
		decoder:   decoder,
		utils:     utils,
		config:    config,
	}
}

// classifierConfig prefers the configuration stored with the session so a
// restart with new env values does not change a running session.
func (s *monitoringService) classifierConfig(session entity.MonitoringSession) ear.Config {
	if err := session.Classifier.Validate(); err != nil {
		return s.config.Classifier
	}
	return session.Classifier
}

func makeSessionResponse(session entity.MonitoringSession) *monitoring.SessionResponse {
	return &monitoring.SessionResponse{
		ID:              session.ID,
		PhoneNumber:     whatsapp.MaskPhoneNumber(session.PhoneNumber),
		Source:          session.Source.String(),
		Status:          string(session.Status),
		VideoURL:        session.VideoURL,
		FramesProcessed: session.FramesProcessed,
		Classifier:      session.Classifier,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
		EndedAt:         session.EndedAt,
	}
}

func makeAlertResponse(alert entity.AlertEvent) monitoring.AlertResponse {
	return monitoring.AlertResponse{
		ID:            alert.ID,
		SessionID:     alert.SessionID,
		PhoneNumber:   whatsapp.MaskPhoneNumber(alert.PhoneNumber),
		Message:       alert.Message,
		Ratio:         alert.Ratio,
		Delivered:     alert.Delivered,
		DeliveryError: alert.DeliveryError,
		CreatedAt:     alert.CreatedAt,
	}
}
