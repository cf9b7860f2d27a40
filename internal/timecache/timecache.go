// internal/timecache/timecache.go
package timecache

import (
	"sync/atomic"
	"time"
)

//
// timecache
// ------------------------------------------------------------
// 매초 현재 시각 문자열을 캐싱하는 모듈.
//
// 배치마다 sentAt을 찍고 S3 archive key를 만들 때 time.Now() +
// Format 호출이 반복되는데, 전송량이 많은 프로세스에서는 이 비용이
// 무시할 수 없다. 1초 ticker로 캐싱하고 초단위 정밀도만 유지한다.
//
// 사용처:
//   - 배치 body의 sentAt (RFC3339, UTC)
//   - s3transport 파티션 prefix (dt=YYYY-MM-DD / hr=HH, KST 기준)
// ------------------------------------------------------------

var (
	unixSec atomic.Int64

	sentAtVal atomic.Value // RFC3339 UTC
	dtVal     atomic.Value // "YYYY-MM-DD"
	hrVal     atomic.Value // "HH"
)

const kstOffset = 9 * time.Hour

func init() {
	update()

	// 1초마다 갱신
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for range ticker.C {
			update()
		}
	}()
}

func update() {
	now := time.Now()
	unixSec.Store(now.Unix())
	sentAtVal.Store(now.UTC().Format(time.RFC3339))

	kst := now.Add(kstOffset)
	dtVal.Store(kst.Format("2006-01-02"))
	hrVal.Store(kst.Format("15"))
}

// Unix returns current UTC epoch seconds (cached, 1-second precision).
func Unix() int64 {
	return unixSec.Load()
}

// SentAt returns the current time in RFC3339 (UTC, cached).
func SentAt() string {
	return sentAtVal.Load().(string)
}

// DT returns "YYYY-MM-DD" (KST 기준).
func DT() string {
	return dtVal.Load().(string)
}

// HR returns "HH" (KST 기준).
func HR() string {
	return hrVal.Load().(string)
}
