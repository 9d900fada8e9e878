// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package purchase

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ErrSubscriptionClosed is returned by [Consumer.Serve] when the bus closes
// the message channel while the service is still running.
var ErrSubscriptionClosed = errors.New("purchase: subscription closed")

// Consumer subscribes to the purchases destination and hands every valid
// purchase to a [Handler].
//
// It implements the suture.Service interface; the supervisor restarts it
// with backoff when the connection drops.
type Consumer struct {
	client  *redis.Client
	channel string
	handler Handler
	logger  *slog.Logger
}

// NewConsumer builds a consumer for the given channel.
func NewConsumer(client *redis.Client, channel string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		client:  client,
		channel: channel,
		handler: handler,
		logger:  logger.With(slog.String("channel", channel)),
	}
}

/*
Serve subscribes and processes messages until the context is cancelled.

Description: The subscription is confirmed before the first message is read,
so a failed SUBSCRIBE surfaces as an error and the supervisor retries.

Parameters:
  - context: stdctx.Context (cancelled on shutdown)

Returns:
  - error: context error on shutdown, or the reason the subscription ended
*/
func (consumer *Consumer) Serve(context stdctx.Context) error {
	pubsub := consumer.client.Subscribe(context, consumer.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(context); err != nil {
		if context.Err() != nil {
			return context.Err()
		}
		return fmt.Errorf("purchase_subscribe_failed: %w", err)
	}

	consumer.logger.InfoContext(context, "purchase_consumer_subscribed")

	messages := pubsub.Channel()
	for {
		select {
		case <-context.Done():
			consumer.logger.InfoContext(context, "purchase_consumer_stopped")
			return context.Err()

		case message, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}
			consumer.process(context, []byte(message.Payload))
		}
	}
}

// process decodes and dispatches one payload. It never fails the loop.
func (consumer *Consumer) process(context stdctx.Context, payload []byte) {
	event, err := ParseEvent(payload)
	switch {
	case errors.Is(err, ErrUnhandledEvent):
		consumer.logger.DebugContext(context, "purchase_message_ignored", slog.String("event", event.Event))
		return
	case err != nil:
		consumer.logger.WarnContext(context, "purchase_message_dropped", slog.Any("error", err))
		return
	}

	if err := consumer.handler.HandlePurchase(context, *event); err != nil {
		consumer.logger.ErrorContext(context, "purchase_handler_failed",
			slog.String("user_id", string(event.UserID)),
			slog.String("book_id", string(event.BookID)),
			slog.Any("error", err),
		)
	}
}

// String names the service in supervisor logs.
func (consumer *Consumer) String() string {
	return "purchase consumer (" + consumer.channel + ")"
}
