package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

const (
	dashboardQueue    = "dashboard_queue"
	dashboardDLQ      = "dashboard_queue_dlq"
	ordersDLQExchange = "pickup_orders_dlq"
	reconnectDelay    = 5 * time.Second
)

type consumer struct {
	conn     Connection
	prefetch int
}

func NewConsumer(conn Connection, prefetch int) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch}
}

// ConsumeOrders feeds new-order announcements to the handler, reconnecting
// on channel loss until the context is cancelled.
func (c *consumer) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	return c.consumeLoop(ctx, "orders", func(ctx context.Context) error {
		return c.consumeOrdersOnce(ctx, handler)
	})
}

// ConsumeNotifications feeds status-update events to the handler via a
// per-subscriber exclusive queue on the fanout exchange.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.consumeLoop(ctx, "notifications", func(ctx context.Context) error {
		return c.consumeNotificationsOnce(ctx, handler)
	})
}

func (c *consumer) consumeLoop(ctx context.Context, name string, consume func(context.Context) error) error {
	for {
		err := consume(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		log.Printf("%s consumer disconnected: %v. Reconnecting in %s...", name, err, reconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *consumer) consumeOrdersOnce(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := c.setupOrdersInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(dashboardQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// Park failed announcements in the DLQ; the dashboard can
				// still pick the order up through startup rehydration.
				msg.Nack(false, false)
			} else {
				msg.Ack(false)
			}
		}
	}
}

func (c *consumer) consumeNotificationsOnce(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(eventsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", eventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Notification handling is best effort.
			_ = handler(ctx, msg.Body)
		}
	}
}

func (c *consumer) setupOrdersInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(ordersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(ordersDLQExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(dashboardDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(dashboardDLQ, "#", ordersDLQExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": ordersDLQExchange,
	}

	q, err := ch.QueueDeclare(dashboardQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare dashboard queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "dashboard.#", ordersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dashboard queue: %w", err)
	}

	return nil
}
