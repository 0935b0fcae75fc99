package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/metrics"
	"github.com/blogpulse/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// Broker owns the AMQP connection and the channel shared by publisher and consumer.
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial 建立连接并声明 topic 类型的 exchange。
func Dial(url string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		ViewExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Broker{conn: conn, channel: ch}, nil
}

// Publisher returns a ViewScheduler that publishes to the view exchange.
func (b *Broker) Publisher() *Publisher {
	return NewPublisher(b.channel)
}

// Consume declares and binds the view queue, then registers deliveries until ctx ends.
func (b *Broker) Consume(ctx context.Context, registrar service.ViewRegistrar) error {
	q, err := b.channel.QueueDeclare(
		ViewQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := b.channel.QueueBind(q.Name, ViewBinding, ViewExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := b.channel.Consume(
		q.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logging.Log.Warn("view delivery channel closed")
					return
				}
				HandleDelivery(ctx, registrar, msg)
			}
		}
	}()
	return nil
}

func (b *Broker) Close() error {
	return errors.Join(b.channel.Close(), b.conn.Close())
}

// HandleDelivery registers one view. Bad payloads and unknown posts are rejected
// without requeue; transient failures are requeued, which the unique view index
// makes safe to retry.
func HandleDelivery(ctx context.Context, registrar service.ViewRegistrar, msg amqp.Delivery) {
	entry := logging.Log.WithField("routing_key", msg.RoutingKey)

	event, err := decodeViewEvent(msg.Body)
	if err != nil {
		entry.WithError(err).Warn("dropping malformed view event")
		_ = msg.Reject(false)
		return
	}

	err = service.ProcessView(ctx, registrar, event.PostID, event.ClientAddress)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrInvalidView):
		_ = msg.Reject(false)
	default:
		_ = msg.Nack(false, !msg.Redelivered)
	}
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements service.ViewScheduler over AMQP.
type Publisher struct {
	mu      sync.Mutex
	channel publishChannel
	now     func() time.Time
}

func NewPublisher(ch publishChannel) *Publisher {
	return &Publisher{channel: ch, now: time.Now}
}

// Schedule publishes a view event; a failed publish is logged and dropped.
func (p *Publisher) Schedule(postID uint, clientAddress string) bool {
	body, err := encodeViewEvent(ViewEvent{
		PostID:        postID,
		ClientAddress: clientAddress,
		OccurredAt:    p.now().UTC(),
	})
	if err != nil {
		metrics.ViewRegistrations.WithLabelValues("dropped").Inc()
		logging.Log.WithError(err).Warn("view event encoding failed")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		ViewExchange,
		RoutingKey(postID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		metrics.ViewRegistrations.WithLabelValues("dropped").Inc()
		logging.Log.WithError(err).WithFields(logrus.Fields{
			"post_id":        postID,
			"client_address": clientAddress,
		}).Warn("view event publish failed, registration dropped")
		return false
	}
	return true
}
