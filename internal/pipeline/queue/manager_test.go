//go:build unit

package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"classcribe/internal/pipeline/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() queue.Config {
	return queue.Config{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		Depth:       16,
	}
}

func enqueueJob(t *testing.T, m *queue.Manager, kind, key string, payload any) queue.Job {
	t.Helper()
	job, err := queue.NewJob(kind, key, payload)
	require.NoError(t, err)
	require.NoError(t, m.Enqueue(context.Background(), job))
	return job
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met within deadline")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	t.Run("起動前のEnqueueはNG", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))
		require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error { return nil }))

		job, err := queue.NewJob("k", "", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, m.Enqueue(context.Background(), job), queue.ErrManagerStopped)
	})

	t.Run("起動後の登録はNG", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))
		require.NoError(t, m.Start(context.Background()))
		defer func() { _ = m.Stop() }()

		assert.ErrorIs(t, m.RegisterQueue("other", 1), queue.ErrManagerStarted)
		assert.ErrorIs(t, m.Start(context.Background()), queue.ErrManagerStarted)
	})

	t.Run("二重登録はNG", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))
		assert.ErrorIs(t, m.RegisterQueue("q", 1), queue.ErrAlreadyRegister)

		h := func(context.Context, queue.Job) error { return nil }
		require.NoError(t, m.RegisterHandler("k", "q", h))
		assert.ErrorIs(t, m.RegisterHandler("k", "q", h), queue.ErrAlreadyRegister)
	})

	t.Run("未登録のkindはNG", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))
		require.NoError(t, m.Start(context.Background()))
		defer func() { _ = m.Stop() }()

		job, err := queue.NewJob("unknown", "", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, m.Enqueue(context.Background(), job), queue.ErrUnknownKind)
	})
}

func TestPerKeyOrdering(t *testing.T) {
	// 複数ワーカーでも同一キーのジョブは投入順に実行される
	m := queue.NewManager(testConfig())
	require.NoError(t, m.RegisterQueue("q", 4))

	var mu sync.Mutex
	seen := make(map[string][]int)
	var total atomic.Int32

	require.NoError(t, m.RegisterHandler("k", "q", func(_ context.Context, job queue.Job) error {
		var p struct {
			Seq int `json:"seq"`
		}
		if err := job.Decode(&p); err != nil {
			return err
		}
		mu.Lock()
		seen[job.OrderingKey] = append(seen[job.OrderingKey], p.Seq)
		mu.Unlock()
		total.Add(1)
		return nil
	}))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	keys := []string{"lesson-a", "lesson-b", "lesson-c"}
	const perKey = 20
	for seq := 0; seq < perKey; seq++ {
		for _, key := range keys {
			enqueueJob(t, m, "k", key, map[string]int{"seq": seq})
		}
	}

	waitFor(t, func() bool { return total.Load() == int32(len(keys)*perKey) })

	mu.Lock()
	defer mu.Unlock()
	for _, key := range keys {
		require.Len(t, seen[key], perKey)
		for i, got := range seen[key] {
			assert.Equal(t, i, got, "key %s out of order", key)
		}
	}
}

func TestBackpressure(t *testing.T) {
	// レーン満杯時は即座に ErrQueueFull
	m := queue.NewManager(queue.Config{MaxAttempts: 1, BackoffBase: time.Millisecond, Depth: 2})
	require.NoError(t, m.RegisterQueue("q", 1))

	block := make(chan struct{})
	require.NoError(t, m.RegisterHandler("k", "q", func(ctx context.Context, _ queue.Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()
	defer close(block)

	// 1件目はワーカーが掴み、2件（Depth分）はレーンに滞留する
	enqueueJob(t, m, "k", "key", nil)
	waitFor(t, func() bool {
		job, err := queue.NewJob("k", "key", nil)
		require.NoError(t, err)
		if err := m.Enqueue(context.Background(), job); err != nil {
			assert.ErrorIs(t, err, queue.ErrQueueFull)
			return true
		}
		return false
	})
}

func TestConcurrencyCeiling(t *testing.T) {
	// バースト投入しても同時実行数はワーカー数を超えない
	const workers = 3
	const jobs = 24

	m := queue.NewManager(queue.Config{MaxAttempts: 1, BackoffBase: time.Millisecond, Depth: jobs})
	require.NoError(t, m.RegisterQueue("q", workers))

	var inFlight, peak, done atomic.Int32
	require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error {
		cur := inFlight.Add(1)
		for {
			seen := peak.Load()
			if cur <= seen || peak.CompareAndSwap(seen, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		return nil
	}))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	// キーを散らして全レーンを同時に埋める
	for i := 0; i < jobs; i++ {
		enqueueJob(t, m, "k", fmt.Sprintf("lesson-%d", i), nil)
	}

	waitFor(t, func() bool { return done.Load() == jobs })
	assert.LessOrEqual(t, peak.Load(), int32(workers),
		"observed %d concurrent executions with %d workers", peak.Load(), workers)
}

func TestEnqueueDuringStop(t *testing.T) {
	// 停止と並行する Enqueue は成功か ErrManagerStopped のどちらかに落ちる
	m := queue.NewManager(testConfig())
	require.NoError(t, m.RegisterQueue("q", 2))
	require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error { return nil }))
	require.NoError(t, m.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				job, err := queue.NewJob("k", fmt.Sprintf("key-%d", n), nil)
				require.NoError(t, err)
				if err := m.Enqueue(context.Background(), job); err != nil {
					if errors.Is(err, queue.ErrQueueFull) {
						continue
					}
					assert.ErrorIs(t, err, queue.ErrManagerStopped)
					return
				}
			}
		}(i)
	}

	time.Sleep(time.Millisecond)
	require.NoError(t, m.Stop())
	wg.Wait()

	job, err := queue.NewJob("k", "", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Enqueue(context.Background(), job), queue.ErrManagerStopped)
}

func TestRetryAndExhaustion(t *testing.T) {
	t.Run("一時エラーはリトライ後に成功", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))

		var attempts atomic.Int32
		var done atomic.Bool
		require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error {
			if attempts.Add(1) < 3 {
				return assert.AnError
			}
			done.Store(true)
			return nil
		}))
		require.NoError(t, m.Start(context.Background()))
		defer func() { _ = m.Stop() }()

		enqueueJob(t, m, "k", "", nil)
		waitFor(t, func() bool { return done.Load() })
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("リトライ上限で OnExhausted が一度だけ呼ばれる", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))

		var attempts atomic.Int32
		require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error {
			attempts.Add(1)
			return assert.AnError
		}))

		var exhausted atomic.Int32
		m.OnExhausted(func(_ context.Context, job queue.Job, err error) {
			exhausted.Add(1)
			assert.Equal(t, "k", job.Kind)
			assert.ErrorIs(t, err, assert.AnError)
		})
		require.NoError(t, m.Start(context.Background()))
		defer func() { _ = m.Stop() }()

		enqueueJob(t, m, "k", "", nil)
		waitFor(t, func() bool { return exhausted.Load() == 1 })
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("恒久エラーはリトライしない", func(t *testing.T) {
		m := queue.NewManager(testConfig())
		require.NoError(t, m.RegisterQueue("q", 1))

		var attempts atomic.Int32
		require.NoError(t, m.RegisterHandler("k", "q", func(context.Context, queue.Job) error {
			attempts.Add(1)
			return queue.Permanent(assert.AnError)
		}))

		var exhausted atomic.Int32
		m.OnExhausted(func(context.Context, queue.Job, error) { exhausted.Add(1) })
		require.NoError(t, m.Start(context.Background()))
		defer func() { _ = m.Stop() }()

		enqueueJob(t, m, "k", "", nil)
		waitFor(t, func() bool { return exhausted.Load() == 1 })
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestPermanentMarker(t *testing.T) {
	assert.Nil(t, queue.Permanent(nil))
	assert.False(t, queue.IsPermanent(assert.AnError))
	assert.True(t, queue.IsPermanent(queue.Permanent(assert.AnError)))
}
