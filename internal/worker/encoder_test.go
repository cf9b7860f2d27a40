package worker

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"estat-analytics/internal/queue"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(payloads ...string) []queue.Item {
	out := make([]queue.Item, len(payloads))
	for i, p := range payloads {
		out[i] = queue.Item{Seq: uint64(i + 1), Type: "track", Payload: json.RawMessage(p)}
	}
	return out
}

func TestEncodeBatchPlain(t *testing.T) {
	e := NewEncoder(false)

	data, err := e.EncodeBatch(items(`{"event":"a"}`, `{"event":"b"}`))
	require.NoError(t, err)

	var body struct {
		Batch  []map[string]string `json:"batch"`
		SentAt string              `json:"sentAt"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	require.Len(t, body.Batch, 2)
	assert.Equal(t, "a", body.Batch[0]["event"])
	assert.Equal(t, "b", body.Batch[1]["event"])
	assert.NotEmpty(t, body.SentAt)
}

func TestEncodeBatchGzipRoundtrip(t *testing.T) {
	e := NewEncoder(true)

	data, err := e.EncodeBatch(items(`{"event":"a"}`))
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"event":"a"`)
}

func TestSplitBatchRespectsLimit(t *testing.T) {
	big := `{"pad":"` + strings.Repeat("x", 100) + `"}`
	in := items(big, big, big, big, big)

	// payload당 ~111B + envelope(64B) → 300B 상한이면 2개씩
	chunks := SplitBatch(in, 300)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	// 순서 보존
	var seqs []uint64
	for _, c := range chunks {
		for _, it := range c {
			seqs = append(seqs, it.Seq)
		}
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seqs)
}

func TestSplitBatchOversizedSingleton(t *testing.T) {
	huge := `{"pad":"` + strings.Repeat("x", 1024) + `"}`
	in := items(huge, `{"event":"small"}`)

	// 단독으로 상한을 넘는 payload도 1개짜리 조각으로 나간다
	chunks := SplitBatch(in, 256)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1)
	assert.Len(t, chunks[1], 1)
}

func TestSplitBatchEmpty(t *testing.T) {
	assert.Nil(t, SplitBatch(nil, 256))
}
