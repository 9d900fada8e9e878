// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package purchase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/taibuivan/bookshelf-users/internal/users/purchase"
)

const testChannel = "book-purchases"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// recorder collects delivered events.
type recorder struct {
	mutex  sync.Mutex
	events []purchase.Event
	err    error
}

func (rec *recorder) HandlePurchase(_ context.Context, event purchase.Event) error {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()
	rec.events = append(rec.events, event)
	return rec.err
}

func (rec *recorder) snapshot() []purchase.Event {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()
	return append([]purchase.Event(nil), rec.events...)
}

func newBus(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

// waitForSubscriber publishes a probe until the consumer is listening.
func waitForSubscriber(t *testing.T, server *miniredis.Miniredis) {
	t.Helper()
	probe := `{"event":"probe"}`
	require.Eventually(t, func() bool {
		return server.Publish(testChannel, probe) > 0
	}, 5*time.Second, 10*time.Millisecond)
}

/*
TestConsumer_DropsBadMessages verifies that undecodable, foreign and
incomplete messages are skipped without stopping the subscription.
*/
func TestConsumer_DropsBadMessages(t *testing.T) {
	server, client := newBus(t)
	rec := &recorder{}
	consumer := purchase.NewConsumer(client, testChannel, rec, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Serve(ctx) }()

	waitForSubscriber(t, server)

	server.Publish(testChannel, `not json`)
	server.Publish(testChannel, `{"event":"book_returned","userId":"1","bookId":"2"}`)
	server.Publish(testChannel, `{"event":"book_purchase","bookId":"2"}`)
	server.Publish(testChannel, `{"event":"book_purchase","userId":"1","bookId":"2"}`)
	server.Publish(testChannel, `{"event":"book_purchase","userId":3,"bookId":4,"transactionType":"BUY"}`)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 5*time.Second, 10*time.Millisecond)

	events := rec.snapshot()
	assert.Equal(t, purchase.ID("1"), events[0].UserID)
	assert.Equal(t, purchase.ID("3"), events[1].UserID)
	assert.Equal(t, "BUY", events[1].TransactionType)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

/*
TestConsumer_HandlerErrorsAreNotFatal keeps consuming after a handler failure.
*/
func TestConsumer_HandlerErrorsAreNotFatal(t *testing.T) {
	server, client := newBus(t)
	rec := &recorder{err: errors.New("downstream unavailable")}
	consumer := purchase.NewConsumer(client, testChannel, rec, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = consumer.Serve(ctx) }()

	waitForSubscriber(t, server)

	server.Publish(testChannel, `{"event":"book_purchase","userId":"1","bookId":"2"}`)
	server.Publish(testChannel, `{"event":"book_purchase","userId":"5","bookId":"6"}`)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 5*time.Second, 10*time.Millisecond)
}

/*
TestConsumer_Supervised runs the consumer under a suture supervisor the way
the api binary does.
*/
func TestConsumer_Supervised(t *testing.T) {
	server, client := newBus(t)
	rec := &recorder{}

	supervisor := suture.NewSimple("purchase test supervisor")
	supervisor.Add(purchase.NewConsumer(client, testChannel, rec, discardLogger))

	ctx, cancel := context.WithCancel(context.Background())
	errs := supervisor.ServeBackground(ctx)

	waitForSubscriber(t, server)
	server.Publish(testChannel, `{"event":"book_purchase","userId":"8","bookId":"9"}`)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}

func TestConsumer_String(t *testing.T) {
	consumer := purchase.NewConsumer(nil, testChannel, &recorder{}, discardLogger)
	assert.Equal(t, "purchase consumer (book-purchases)", consumer.String())
}
