package via

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// statsPayload is the /_stats response body.
type statsPayload struct {
	Contexts    int                     `json:"contexts"`
	Clients     map[string]ClientRecord `json:"clients"`
	RenderStats renderStatsPayload      `json:"render_stats"`
	Memory      memoryPayload           `json:"memory"`
	Uptime      int64                   `json:"uptime"`
}

type renderStatsPayload struct {
	RenderCount int64   `json:"render_count"`
	TotalTime   float64 `json:"total_time"`
	AvgTime     float64 `json:"avg_time"`
	MinTime     float64 `json:"min_time"`
	MaxTime     float64 `json:"max_time"`
}

type memoryPayload struct {
	Current uint64 `json:"current"`
	Peak    uint64 `json:"peak"`
}

func (v *V) statsSnapshot() statsPayload {
	count, total, min, max := v.renderStats.snapshot()
	avg := 0.0
	if count > 0 {
		avg = total.Seconds() / float64(count)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	v.stateMu.Lock()
	if ms.HeapAlloc > v.peakMemory {
		v.peakMemory = ms.HeapAlloc
	}
	peak := v.peakMemory
	contexts := len(v.contextRegistry)
	v.stateMu.Unlock()

	return statsPayload{
		Contexts: contexts,
		Clients:  v.clientSnapshot(),
		RenderStats: renderStatsPayload{
			RenderCount: count,
			TotalTime:   total.Seconds(),
			AvgTime:     avg,
			MinTime:     min.Seconds(),
			MaxTime:     max.Seconds(),
		},
		Memory: memoryPayload{Current: ms.HeapAlloc, Peak: peak},
		Uptime: int64(time.Since(v.startedAt) / time.Second),
	}
}

func (v *V) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v.statsSnapshot()); err != nil {
		v.logErr(nil, "stats encode failed: %v", err)
	}
}
