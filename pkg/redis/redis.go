package redis

import (
	"DrowsyGuard/pkg/ear"
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

const stateKeyPrefix = "drowsyguard:state:"

// IRedis stores classifier state for streams that arrive as independent
// HTTP requests rather than one long-lived connection.
type IRedis interface {
	GetState(ctx context.Context, sessionID string) (ear.State, error)
	SetState(ctx context.Context, sessionID string, state ear.State, expiration time.Duration) error
	DeleteState(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	r := &redisClient{client: client, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return r
}

func stateKey(sessionID string) string {
	return stateKeyPrefix + sessionID
}

// GetState returns the zero state when nothing is stored for the session.
func (r *redisClient) GetState(ctx context.Context, sessionID string) (ear.State, error) {
	key := stateKey(sessionID)

	counter, err := r.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		r.log.Debug(fmt.Sprintf("No classifier state for key %s, starting fresh", key))
		return ear.State{}, nil
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting classifier state for key %s: %v", key, err))
		return ear.State{}, err
	}

	return ear.State{Counter: counter}, nil
}

func (r *redisClient) SetState(ctx context.Context, sessionID string, state ear.State, expiration time.Duration) error {
	key := stateKey(sessionID)

	if err := r.client.Set(ctx, key, state.Counter, expiration).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error setting classifier state for key %s: %v", key, err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Stored classifier state for key %s: counter=%d", key, state.Counter))
	return nil
}

func (r *redisClient) DeleteState(ctx context.Context, sessionID string) error {
	key := stateKey(sessionID)

	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error deleting classifier state for key %s: %v", key, err))
		return err
	}

	if result == 0 {
		r.log.Debug(fmt.Sprintf("Classifier state key %s not found for deletion", key))
	}

	return nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
