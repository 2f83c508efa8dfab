// Package gateway is the messaging gateway: commands in, replies out,
// over AMQP. The bot itself never touches the broker; it sees only
// InboundCommand and OutboundReply values.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"spendbot/internal/log"
)

// Handler processes one inbound command and returns the reply to send.
// Handlers never return an error for user mistakes; those become reply
// text. An error here means the command could not be processed at all
// and the delivery is requeued.
type Handler func(ctx context.Context, cmd InboundCommand) (OutboundReply, error)

type Client struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	exchangeName  string
	inboundQueue  string
	outboundQueue string
}

func NewClient(url, exchangeName, inboundQueue, outboundQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:          conn,
		channel:       channel,
		exchangeName:  exchangeName,
		inboundQueue:  inboundQueue,
		outboundQueue: outboundQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.inboundQueue, c.outboundQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// routing key is the queue name on a direct exchange
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// Publish sends a reply to the outbound queue, stamping a correlation
// ID if the caller did not.
func (c *Client) Publish(ctx context.Context, reply OutboundReply) error {
	if reply.CorrelationID == "" {
		reply.CorrelationID = uuid.NewString()
	}
	if reply.Timestamp.IsZero() {
		reply.Timestamp = time.Now()
	}

	body, err := reply.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,  // exchange
		c.outboundQueue, // routing key
		false,           // mandatory
		false,           // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			CorrelationId: reply.CorrelationID,
			Timestamp:     reply.Timestamp,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}

	slog.DebugContext(ctx, "Published reply",
		log.FieldComponent, log.ComponentGateway,
		log.FieldConversation, reply.ConversationID,
		"correlation_id", reply.CorrelationID,
		"monospace", reply.Monospace)

	return nil
}

// Consume reads inbound commands until the context is cancelled,
// handing each to the handler and publishing its reply. Malformed
// deliveries are dropped; handler failures are requeued. A publish
// failure is NOT requeued: the handler's effects are already
// committed, and redelivering the command would run them again.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.inboundQueue, // queue
		"",             // consumer
		false,          // auto-ack (we want manual ack)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming commands",
		log.FieldComponent, log.ComponentGateway,
		"queue", c.inboundQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping command consumption",
				log.FieldComponent, log.ComponentGateway,
				"reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			cmd, err := InboundCommandFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal command",
					log.FieldComponent, log.ComponentGateway,
					log.FieldError, err.Error())
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			reply, err := handler(ctx, cmd)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to handle command",
					log.FieldComponent, log.ComponentGateway,
					log.FieldError, err.Error(),
					log.FieldConversation, cmd.ConversationID,
					log.FieldCommand, cmd.Command)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			if err := c.Publish(ctx, reply); err != nil {
				// The command already ran to completion; drop the
				// reply instead of double-executing the command.
				slog.ErrorContext(ctx, "Failed to publish reply, dropping it",
					log.FieldComponent, log.ComponentGateway,
					log.FieldError, err.Error(),
					log.FieldConversation, cmd.ConversationID,
					log.FieldMessageID, cmd.MessageID)
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
