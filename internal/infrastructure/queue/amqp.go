package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes jobs to a durable RabbitMQ queue. Consumers use auto-ack,
// so a delivered job is never redelivered.
type AMQPQueue struct {
	conn   *amqp.Connection
	name   string
	logger *zap.Logger

	mu      sync.Mutex
	publish *amqp.Channel
}

// NewAMQPQueue dials the broker and declares the queue
func NewAMQPQueue(url, name string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	q := &AMQPQueue{
		conn:    conn,
		name:    name,
		publish: ch,
		logger:  logger.Named("amqp-queue"),
	}

	go func() {
		if cerr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); cerr != nil {
			q.logger.Error("AMQP connection closed", zap.String("reason", cerr.Reason))
		}
	}()

	return q, nil
}

var _ outbound.JobQueue = (*AMQPQueue)(nil)

// Publish sends a persistent JSON message
func (q *AMQPQueue) Publish(_ context.Context, job task.GenerateJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.publish.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: job.TaskID.String(),
		Type:          "mealplan.generate",
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// Consume opens a dedicated channel and delivers messages until ctx is cancelled
func (q *AMQPQueue) Consume(ctx context.Context, handler outbound.JobHandler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(q.name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", q.name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			var job task.GenerateJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				q.logger.Error("Dropping malformed job",
					zap.String("message_id", d.CorrelationId),
					zap.Error(err),
				)
				continue
			}
			if err := handler(ctx, job); err != nil {
				q.logger.Warn("Job handler returned error",
					zap.String("task_id", job.TaskID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// Close closes the broker connection
func (q *AMQPQueue) Close() error {
	if q.conn.IsClosed() {
		return nil
	}
	return q.conn.Close()
}
