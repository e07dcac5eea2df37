package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// SyncMetrics tracks how many sync passes ran and a rolling average of the
// frame (batch) time over the last AVG_COUNT frames.
type SyncMetrics struct {
	mu sync.Mutex

	frameAVGCounter uint8
	msTimes         [AVG_COUNT]float64
	msAvg           float64
	frames          uint64
	passes          uint64
	failedPasses    uint64
}

func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{}
}

// PassDone records one prim pass.
func (m *SyncMetrics) PassDone(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes++
	if err != nil {
		m.failedPasses++
	}
}

// FrameDone records the duration of a whole batch.
func (m *SyncMetrics) FrameDone(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameMS := float64(d) / float64(time.Millisecond)
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == AVG_COUNT-1 {
		m.msAvg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.msAvg += m.msTimes[i]
		}
		m.msAvg /= float64(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT
	m.frames++
}

// Snapshot returns frames, passes, failed passes and the average frame ms.
func (m *SyncMetrics) Snapshot() (frames, passes, failed uint64, avgMS float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames, m.passes, m.failedPasses, m.msAvg
}
