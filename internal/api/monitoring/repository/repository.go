package monitoringRepository

import (
	"DrowsyGuard/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Sessions: &sessionRepository{q: sqlExecutor, log: r.log},
		Alerts:   &alertRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Sessions interface {
		CreateSession(ctx context.Context, session entity.MonitoringSession) error
		GetSessionByID(ctx context.Context, id string) (entity.MonitoringSession, error)
		// EndSession moves a session from one status to another and reports
		// whether this call made the transition.
		EndSession(ctx context.Context, id string, from, to entity.SessionStatus, endedAt time.Time) (bool, error)
		SetVideoURL(ctx context.Context, id string, videoURL string) error
		AddFramesProcessed(ctx context.Context, id string, frames int64) error
	}

	Alerts interface {
		CreateAlert(ctx context.Context, alert entity.AlertEvent) error
		GetAlertsBySessionID(ctx context.Context, sessionID string) ([]entity.AlertEvent, error)
	}

	Commit   func() error
	Rollback func() error
}

type sessionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type alertRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
