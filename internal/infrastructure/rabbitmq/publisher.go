// Package rabbitmq は予約ライフサイクルイベントの発行を行う。
// 発行はベストエフォートであり、失敗しても予約処理本体は中断しない。
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
)

// ReservationEvent は下流コンシューマ向けの予約イベントペイロード
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	Status        string    `json:"status"`
	SeatNumbers   []string  `json:"seat_numbers"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher はトピックエクスチェンジへ予約イベントを発行する
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher はRabbitMQへ接続しPublisherを作成する
// エクスチェンジ宣言は冪等
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("エクスチェンジ宣言に失敗しました: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, exchange: cfg.Exchange}, nil
}

// Publish は予約イベントを発行する
// ルーティングキーは reservation.<status>（例: reservation.confirmed）
func (p *Publisher) Publish(ctx context.Context, event *ReservationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	routingKey := "reservation." + event.Status
	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}

	logger.Debug("予約イベントを発行しました",
		zap.String("routing_key", routingKey),
		zap.String("reservation_id", event.ReservationID))
	return nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
