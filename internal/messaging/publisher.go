package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/models"
)

// Publisher emits table events to the tables topic exchange. Events are an
// observability side channel: the service works identically without one.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a publisher on an established connection.
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishTableEvent publishes an event with routing key "table.<event>".
func (p *Publisher) PublishTableEvent(ctx context.Context, event *models.TableEvent) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	routingKey := "table." + event.Event

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		tablesExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("event_publish_failed",
			fmt.Sprintf("Failed to publish event %s", event.Event),
			"", err, map[string]any{
				"routing_key": routingKey,
				"table_id":    event.TableID,
			})
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event_published",
		fmt.Sprintf("Published event %s", event.Event),
		"", map[string]any{
			"routing_key": routingKey,
			"table_id":    event.TableID,
		})

	return nil
}

// Close closes the underlying connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
