package queue

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueue_FIFO_SingleSender(t *testing.T) {
	q := New[int](0)
	for i := 0; i < 200; i++ {
		require.NoError(t, q.Send(i))
	}
	require.Equal(t, 200, q.Len())

	for i := 0; i < 200; i++ {
		v, ok := q.Receive()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueue_Receive_BlocksUntilSend(t *testing.T) {
	q := New[string](0)

	got := make(chan string, 1)
	go func() {
		v, _ := q.Receive()
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("Receive returned %q before anything was sent", v)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Send("hello"))

	select {
	case v := <-got:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("blocked Receive did not resume after Send")
	}
}

func TestQueue_Close_DrainsThenDisconnects(t *testing.T) {
	q := New[int](0)
	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))
	q.Close()
	q.Close() // idempotent

	require.True(t, q.Closed())
	require.ErrorIs(t, q.Send(3), ErrClosed)

	v, ok := q.Receive()
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = q.Receive()
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = q.Receive()
	require.False(t, ok, "closed and drained queue must report disconnect")
}

func TestQueue_Close_WakesAllReceivers(t *testing.T) {
	q := New[int](0)

	const receivers = 8
	var wg sync.WaitGroup
	wg.Add(receivers)
	for i := 0; i < receivers; i++ {
		go func() {
			defer wg.Done()
			_, ok := q.Receive()
			require.False(t, ok)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake every blocked receiver")
	}
}

func TestQueue_Bounded(t *testing.T) {
	q := New[int](2)
	require.Equal(t, 2, q.Cap())
	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))
	require.ErrorIs(t, q.Send(3), ErrFull)

	_, ok := q.Receive()
	require.True(t, ok)
	require.NoError(t, q.Send(3))
}

func TestQueue_ForceSend_IgnoresCapacityButNotClose(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.Send(1))
	require.ErrorIs(t, q.Send(2), ErrFull)
	require.NoError(t, q.ForceSend(2))
	require.Equal(t, 2, q.Len())

	q.Close()
	require.ErrorIs(t, q.ForceSend(3), ErrClosed)
}

func TestQueue_NegativeCapacityIsUnbounded(t *testing.T) {
	q := New[int](-5)
	require.Equal(t, 0, q.Cap())
	for i := 0; i < 1000; i++ {
		require.NoError(t, q.Send(i))
	}
	require.Equal(t, 1000, q.Len())
}

func TestQueue_TryReceive(t *testing.T) {
	q := New[int](0)
	_, ok := q.TryReceive()
	require.False(t, ok)

	require.NoError(t, q.Send(7))
	v, ok := q.TryReceive()
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestQueue_Compaction_KeepsOrder(t *testing.T) {
	q := New[int](0)
	next := 0
	want := 0
	// interleave so the consumed prefix grows past the compaction threshold
	for round := 0; round < 10; round++ {
		for i := 0; i < 100; i++ {
			require.NoError(t, q.Send(next))
			next++
		}
		for i := 0; i < 70; i++ {
			v, ok := q.Receive()
			require.True(t, ok)
			require.Equal(t, want, v)
			want++
		}
	}
	for q.Len() > 0 {
		v, ok := q.Receive()
		require.True(t, ok)
		require.Equal(t, want, v)
		want++
	}
	require.Equal(t, next, want)
}

func TestQueue_MPMC_ExactlyOnce(t *testing.T) {
	q := New[int](0)

	const (
		senders   = 8
		perSender = 500
		receivers = 6
	)

	var (
		mu   sync.Mutex
		seen = make([]int, 0, senders*perSender)
		rwg  sync.WaitGroup
	)
	rwg.Add(receivers)
	for r := 0; r < receivers; r++ {
		go func() {
			defer rwg.Done()
			for {
				v, ok := q.Receive()
				if !ok {
					return
				}
				mu.Lock()
				seen = append(seen, v)
				mu.Unlock()
			}
		}()
	}

	var swg sync.WaitGroup
	swg.Add(senders)
	for s := 0; s < senders; s++ {
		go func(base int) {
			defer swg.Done()
			for i := 0; i < perSender; i++ {
				require.NoError(t, q.Send(base+i))
			}
		}(s * perSender)
	}
	swg.Wait()
	q.Close()
	rwg.Wait()

	require.Len(t, seen, senders*perSender)
	sort.Ints(seen)
	for i, v := range seen {
		require.Equal(t, i, v, "value delivered more than once or lost")
	}
}
