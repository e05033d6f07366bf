package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()

	msg := Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "hi", Body: "hello"}
	require.NoError(t, box.Send(ctx, msg))
	assert.Equal(t, []Message{msg}, box.Messages())

	box.Fail(errors.New("connection refused"))
	err := box.Send(ctx, msg)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Len(t, box.Messages(), 1)

	box.Fail(nil)
	assert.NoError(t, box.Send(ctx, msg))
	assert.Len(t, box.Messages(), 2)
}

func TestOutboxConcurrentFail(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	msg := Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "hi"}

	var wg sync.WaitGroup
	var failed sync.Map
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				box.Fail(errors.New("down"))
			} else {
				box.Fail(nil)
			}
		}()
		go func() {
			defer wg.Done()
			if err := box.Send(ctx, msg); err != nil {
				failed.Store(i, err)
			}
		}()
	}
	wg.Wait()

	sent := len(box.Messages())
	errs := 0
	failed.Range(func(_, v any) bool {
		assert.ErrorIs(t, v.(error), ErrDelivery)
		errs++
		return true
	})
	assert.Equal(t, 50, sent+errs)
}

func TestSMTPMailerBuild(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost"}, nil)
	assert.Equal(t, 587, m.cfg.Port)
	assert.Equal(t, 10*time.Second, m.cfg.Timeout)

	out, err := m.build(Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "Ann recommends you read Go", Body: "Read Go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann recommends you read Go"}, out.GetGenHeader(mail.HeaderSubject))

	_, err = m.build(Message{From: "not an address", To: []string{"b@example.com"}})
	assert.Error(t, err)
}

func TestSMTPMailerInvalidMessageIsDeliveryError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost"}, nil)
	err := m.Send(context.Background(), Message{From: "a@example.com", To: []string{"@@"}})
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestSMTPMailerUnreachableServer(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, Timeout: time.Second}, nil)
	err := m.Send(context.Background(), Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrDelivery)
}
