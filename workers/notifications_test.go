package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pregador/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []mailer.Email
	calls int
	fail  int // number of initial calls that fail
	block chan struct{}
}

func (f *fakeMailer) Provider() string { return "fake" }

func (f *fakeMailer) Send(_ context.Context, e mailer.Email) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fail {
		return errors.New("provider down")
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeMailer) snapshot() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, len(f.sent)
}

func TestDispatcher_DeliversQueuedEmails(t *testing.T) {
	m := &fakeMailer{}
	d := NewDispatcher(m, DispatcherOptions{QueueSize: 10, Workers: 2})
	d.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"b@x.com"}, mailer.WithSubject("oi"))))
	}
	d.Stop()

	calls, sent := m.snapshot()
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, sent)
}

func TestDispatcher_SingleAttemptByDefault(t *testing.T) {
	m := &fakeMailer{fail: 1}
	d := NewDispatcher(m, DispatcherOptions{QueueSize: 1, Workers: 1})
	d.Start(context.Background())

	require.True(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"b@x.com"})))
	d.Stop()

	calls, sent := m.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, sent)
}

func TestDispatcher_RetriesUpToMaxAttempts(t *testing.T) {
	m := &fakeMailer{fail: 2}
	d := NewDispatcher(m, DispatcherOptions{QueueSize: 1, Workers: 1, MaxAttempts: 3, Backoff: time.Millisecond})
	d.Start(context.Background())

	require.True(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"b@x.com"})))
	d.Stop()

	calls, sent := m.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, sent)
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	m := &fakeMailer{}
	d := NewDispatcher(m, DispatcherOptions{QueueSize: 1, Workers: 1})
	// not started: nothing drains the queue
	assert.True(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"b@x.com"})))
	assert.False(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"c@x.com"})))
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(&fakeMailer{}, DispatcherOptions{})
	d.Start(context.Background())
	d.Stop()
	d.Stop()
	assert.False(t, d.Enqueue(mailer.NewEmail("a@x.com", []string{"b@x.com"})))
}
