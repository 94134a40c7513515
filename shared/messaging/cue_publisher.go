package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adventure-server/shared/interfaces"
	"adventure-server/shared/models"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	cueExchange     = "turn_cue_exchange"
	cueExchangeType = "fanout"
)

// CuePayload — сообщение с подсказками одного хода.
type CuePayload struct {
	SessionID uuid.UUID    `json:"session_id"`
	PlayerID  uuid.UUID    `json:"player_id"`
	Cues      []models.Cue `json:"cues"`
	EmittedAt time.Time    `json:"emitted_at"`
}

var _ interfaces.CuePublisher = (*RabbitMQCuePublisher)(nil)

// RabbitMQCuePublisher публикует подсказки хода в fanout exchange,
// откуда их забирают клиентские сервисы (уведомления, websocket и т.п.).
type RabbitMQCuePublisher struct {
	conn         *amqp091.Connection
	ch           *amqp091.Channel
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitMQCuePublisher открывает канал и объявляет exchange подсказок.
func NewRabbitMQCuePublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQCuePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for turn cues", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cueExchange,
		cueExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare cue exchange", zap.String("exchange", cueExchange), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", cueExchange, err)
	}

	return &RabbitMQCuePublisher{
		conn:         conn,
		ch:           ch,
		logger:       logger.Named("CuePublisher"),
		exchangeName: cueExchange,
	}, nil
}

// PublishCues публикует подсказки хода. Пустой список не отправляется.
func (p *RabbitMQCuePublisher) PublishCues(ctx context.Context, sessionID, playerID uuid.UUID, cues []models.Cue) error {
	if len(cues) == 0 {
		return nil
	}

	payload := CuePayload{
		SessionID: sessionID,
		PlayerID:  playerID,
		Cues:      cues,
		EmittedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal cue payload", zap.Error(err))
		return fmt.Errorf("failed to marshal cue payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchangeName,
		"",    // routing key не используется для fanout
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish turn cues",
			zap.String("sessionID", sessionID.String()), zap.Error(err))
		return fmt.Errorf("failed to publish turn cues: %w", err)
	}

	p.logger.Debug("Turn cues published",
		zap.String("sessionID", sessionID.String()), zap.Int("count", len(cues)))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQCuePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// NoopCuePublisher — заглушка на случай, когда брокер не сконфигурирован.
// Движок работает без шины, подсказки остаются только в ответе API.
type NoopCuePublisher struct{}

func (NoopCuePublisher) PublishCues(_ context.Context, _, _ uuid.UUID, _ []models.Cue) error {
	return nil
}

func (NoopCuePublisher) Close() error { return nil }
