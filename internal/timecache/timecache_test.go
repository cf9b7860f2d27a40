package timecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedValues(t *testing.T) {
	now := time.Now().Unix()
	assert.InDelta(t, now, Unix(), 2)

	sentAt, err := time.Parse(time.RFC3339, SentAt())
	require.NoError(t, err)
	assert.InDelta(t, now, sentAt.Unix(), 2)

	assert.Len(t, DT(), len("2006-01-02"))
	assert.Len(t, HR(), 2)
}
