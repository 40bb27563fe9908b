package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePublishSync(t *testing.T) {
	b := New()
	var got Payload
	b.Subscribe(TaskCreated, func(eventType string, payload Payload) {
		got = payload
	})

	n := b.Publish(TaskCreated, map[string]any{"task": "t1"}, false)

	assert.Equal(t, 1, n)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got["task"])
	assert.Contains(t, got, "timestamp")
}

func TestPublishAsyncDeliversToAllSubscribers(t *testing.T) {
	b := New(WithDispatchWorkers(2))
	var count int64
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		b.Subscribe(TaskProgress, func(eventType string, payload Payload) {
			atomic.AddInt64(&count, 1)
			wg.Done()
		})
	}

	n := b.Publish(TaskProgress, map[string]any{"task": "t1"}, true)
	assert.Equal(t, 3, n)

	waitOrTimeout(t, &wg, time.Second)
	assert.Equal(t, int64(3), atomic.LoadInt64(&count))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	handle := b.Subscribe(TaskFailed, func(eventType string, payload Payload) {
		calls++
	})

	removed := b.Unsubscribe(TaskFailed, handle)
	assert.True(t, removed)

	b.Publish(TaskFailed, nil, false)
	assert.Equal(t, 0, calls)
}

func TestSubscribeIsIdempotentForSameHandle(t *testing.T) {
	b := New()
	calls := 0
	cb := Callback(func(eventType string, payload Payload) { calls++ })
	h1 := b.Subscribe(TaskCancelled, cb)
	h2 := b.Subscribe(TaskCancelled, *h1)

	assert.Equal(t, 1, b.SubscriberCount(TaskCancelled))
	_ = h2
}

func TestPanickingSubscriberDoesNotAffectSiblings(t *testing.T) {
	b := New()
	var secondCalled bool
	b.Subscribe(TaskCompleted, func(eventType string, payload Payload) {
		panic("boom")
	})
	b.Subscribe(TaskCompleted, func(eventType string, payload Payload) {
		secondCalled = true
	})

	assert.NotPanics(t, func() {
		b.Publish(TaskCompleted, nil, false)
	})
	assert.True(t, secondCalled)
}

func TestClearRemovesSubscribers(t *testing.T) {
	b := New()
	b.Subscribe(TaskCreated, func(string, Payload) {})
	b.Subscribe(TaskFailed, func(string, Payload) {})

	b.Clear(TaskCreated)
	assert.Equal(t, 0, b.SubscriberCount(TaskCreated))
	assert.Equal(t, 1, b.SubscriberCount(TaskFailed))

	b.Clear("")
	assert.Equal(t, 0, b.SubscriberCount(TaskFailed))
}

func TestShutdownRejectsFurtherPublish(t *testing.T) {
	b := New()
	calls := 0
	b.Subscribe(TaskCreated, func(string, Payload) { calls++ })

	b.Shutdown(true)

	n := b.Publish(TaskCreated, nil, true)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, calls)
}

func TestAsyncDispatchBoundedConcurrency(t *testing.T) {
	b := New(WithDispatchWorkers(2))
	var current, max int64
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		b.Subscribe(TaskProgress, func(eventType string, payload Payload) {
			defer wg.Done()
			n := atomic.AddInt64(&current, 1)
			for {
				old := atomic.LoadInt64(&max)
				if n <= old || atomic.CompareAndSwapInt64(&max, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt64(&current, -1)
		})
	}

	b.Publish(TaskProgress, map[string]any{"task": "t1"}, true)
	time.Sleep(20 * time.Millisecond)
	close(release)
	waitOrTimeout(t, &wg, time.Second)

	assert.LessOrEqual(t, atomic.LoadInt64(&max), int64(2))
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for async subscribers")
	}
}
