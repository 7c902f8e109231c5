package queue

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) (string, *int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var accepted int32
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&accepted, 1)
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/", &accepted
}

func TestPublishHonoursContextDeadline(t *testing.T) {
	url, _ := silentBroker(t)
	log, _ := test.NewNullLogger()
	p := NewPublisher(url, "activity", log)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.Publish(ctx, ActivityEvent{Type: ReviewCreated})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishDialTimeoutWithoutDeadline(t *testing.T) {
	url, _ := silentBroker(t)
	log, _ := test.NewNullLogger()
	p := NewPublisher(url, "activity", log)
	p.DialTimeout = 150 * time.Millisecond
	defer p.Close()

	start := time.Now()
	require.Error(t, p.Publish(context.Background(), ActivityEvent{Type: ReviewCreated}))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishCoolsDownAfterFailedDial(t *testing.T) {
	url, accepted := silentBroker(t)
	log, hook := test.NewNullLogger()
	p := NewPublisher(url, "activity", log)
	p.DialTimeout = 100 * time.Millisecond
	p.Cooldown = time.Hour
	defer p.Close()

	require.Error(t, p.Publish(context.Background(), ActivityEvent{Type: ReviewCreated}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(accepted) == 1 }, time.Second, 10*time.Millisecond)

	start := time.Now()
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, p.Publish(context.Background(), ActivityEvent{Type: MovieDeleted}), ErrBrokerCooling)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(accepted))
	assert.NotEmpty(t, hook.AllEntries())

	// the cooldown ends and the next publish dials again
	p.mu.Lock()
	p.failedAt = time.Now().Add(-2 * time.Hour)
	p.mu.Unlock()
	require.Error(t, p.Publish(context.Background(), ActivityEvent{Type: ReviewDeleted}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(accepted) == 2 }, time.Second, 10*time.Millisecond)
}
