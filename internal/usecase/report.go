package usecase

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

// Report summarizes one sync run.
type Report struct {
	// Candidates is the number of refs handed to the run, Skipped those
	// already cached when only missing documents are synced.
	Candidates int `json:"candidates"`
	Skipped    int `json:"skipped"`

	Attempted   int `json:"attempted"`
	Fetched     int `json:"fetched"`
	Missing     int `json:"missing"`
	RateLimited int `json:"rateLimited"`
	Failed      int `json:"failed"`

	// Stopped names why the run stopped claiming work early, if it did.
	Stopped string        `json:"stopped,omitempty"`
	Elapsed time.Duration `json:"elapsed"`

	// Per-skill resolution latency.
	LatencyMedian time.Duration `json:"latencyMedian"`
	LatencyP90    time.Duration `json:"latencyP90"`

	// Progress is the cumulative record after the run.
	Progress domain.SyncProgress `json:"progress"`
}

func (r *Report) tally(results []syncResult) {
	var latencies stats.Float64Data
	for _, res := range results {
		switch res.outcome {
		case outcomeSkipped:
			continue
		case outcomeFetched:
			r.Fetched++
		case outcomeMissing:
			r.Missing++
		case outcomeRateLimited:
			r.RateLimited++
		case outcomeFailed:
			r.Failed++
		}
		r.Attempted++
		latencies = append(latencies, float64(res.elapsed))
	}
	if len(latencies) == 0 {
		return
	}
	if m, err := stats.Median(latencies); err == nil {
		r.LatencyMedian = time.Duration(m)
	}
	if p, err := stats.Percentile(latencies, 90); err == nil {
		r.LatencyP90 = time.Duration(p)
	}
}
