// Package rabbitmq は予約イベントを RabbitMQ の topic exchange へ配信する
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher は予約イベントを配信する
type Publisher struct {
	mu       sync.Mutex
	ch       channel
	conn     io.Closer
	exchange string
}

// NewPublisher は RabbitMQ に接続し、exchange を宣言する
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQへの接続に失敗しました: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネルのオープンに失敗しました: %w", err)
	}
	p, err := newPublisher(ch, conn, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, conn io.Closer, exchange string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("exchangeの宣言に失敗しました: %w", err)
	}
	return &Publisher{ch: ch, conn: conn, exchange: exchange}, nil
}

// Publish はイベントを JSON で配信する。ルーティングキーはイベント種別
func (p *Publisher) Publish(ctx context.Context, event reservation.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReservationID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("イベントの配信に失敗: %w", err)
	}
	return nil
}

// Close はチャネルと接続を閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}
	return chErr
}

// NopPublisher はイベントを破棄する（配信先未設定時）
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, reservation.Event) error { return nil }

func (NopPublisher) Close() error { return nil }
