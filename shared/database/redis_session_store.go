package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adventure-server/shared/interfaces"
	"adventure-server/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.SessionStore = (*redisSessionStore)(nil)

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionStore создает стор активных сессий поверх Redis.
// TTL продлевается каждым Put: сессия живет, пока игрок ходит.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.SessionStore {
	return &redisSessionStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("game_session:%s", sessionID)
}

func (s *redisSessionStore) Put(ctx context.Context, session *models.GameSession) error {
	session.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(session)
	if err != nil {
		s.logger.Error("Failed to marshal session", zap.String("sessionID", session.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка сериализации сессии %s: %w", session.ID, err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), payload, s.ttl).Err(); err != nil {
		s.logger.Error("Failed to store session in redis", zap.String("sessionID", session.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка записи сессии %s в redis: %w", session.ID, err)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			s.logger.Debug("Session not found in redis", zap.String("sessionID", sessionID.String()))
			return nil, models.ErrSessionNotFound
		}
		s.logger.Error("Failed to get session from redis", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения сессии %s из redis: %w", sessionID, err)
	}

	session := &models.GameSession{}
	if err := json.Unmarshal(payload, session); err != nil {
		s.logger.Error("Corrupted session payload in redis", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("поврежденные данные сессии %s в redis: %w", sessionID, err)
	}
	if session.State != nil {
		session.State.Normalize()
	}
	return session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		s.logger.Error("Failed to delete session from redis", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return fmt.Errorf("ошибка удаления сессии %s из redis: %w", sessionID, err)
	}
	return nil
}
