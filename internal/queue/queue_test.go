package queue

import (
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(s string) json.RawMessage {
	return json.RawMessage(`{"event":"` + s + `"}`)
}

func TestFIFOOrder(t *testing.T) {
	q := New(10)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		_, ok := q.Enqueue("track", payload(s))
		require.True(t, ok)
	}

	first := q.DrainBatch(3)
	require.Len(t, first, 3)
	assert.EqualValues(t, 1, first[0].Seq)
	assert.EqualValues(t, 3, first[2].Seq)

	rest := q.DrainBatch(10)
	require.Len(t, rest, 2)
	assert.EqualValues(t, 4, rest[0].Seq)
	assert.EqualValues(t, 5, rest[1].Seq)

	assert.Nil(t, q.DrainBatch(10))
	assert.True(t, q.IsEmpty())
}

func TestCapacityBound(t *testing.T) {
	q := New(2)

	_, ok := q.Enqueue("track", payload("a"))
	require.True(t, ok)
	_, ok = q.Enqueue("track", payload("b"))
	require.True(t, ok)

	// 상한 도달 — 거절되고 크기는 절대 상한을 넘지 않는다
	_, ok = q.Enqueue("track", payload("c"))
	assert.False(t, ok)
	assert.Equal(t, 2, q.Size())

	// 공간이 나면 다시 받는다
	q.DrainBatch(1)
	_, ok = q.Enqueue("track", payload("d"))
	assert.True(t, ok)
}

func TestScrub(t *testing.T) {
	q := New(10)
	q.Enqueue("track", payload("a"))
	q.Enqueue("track", payload("b"))

	n, last := q.Scrub()
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 2, last)
	assert.True(t, q.IsEmpty())

	n, last = q.Scrub()
	assert.Zero(t, n)
	assert.Zero(t, last)
}

func TestSeqMonotonicAcrossDrain(t *testing.T) {
	q := New(4)
	q.Enqueue("track", payload("a"))
	q.DrainBatch(1)

	seq, ok := q.Enqueue("track", payload("b"))
	require.True(t, ok)
	assert.EqualValues(t, 2, seq)
	assert.EqualValues(t, 2, q.LastSeq())
}

func TestConcurrentEnqueue(t *testing.T) {
	const workers, perWorker = 8, 100
	q := New(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, ok := q.Enqueue("track", payload("x"))
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, q.Size())

	// seq 중복 없이 전부 들어갔는지 확인
	seen := make(map[uint64]bool)
	for _, it := range q.DrainBatch(workers * perWorker) {
		assert.False(t, seen[it.Seq])
		seen[it.Seq] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
