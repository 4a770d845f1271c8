package domain

import "time"

// DomainStats is a point-in-time snapshot of the counters kept for one domain
type DomainStats struct {
	Domain                 string    `json:"domain"`
	DirectSuccesses        int64     `json:"direct_successes"`
	DirectFailures         int64     `json:"direct_failures"`
	DownloadFirstSuccesses int64     `json:"download_first_successes"`
	LastUpdated            time.Time `json:"last_updated"`
	PreferDownloadFirst    bool      `json:"prefer_download_first"`
}

// Samples returns the number of recorded outcomes
func (s DomainStats) Samples() int64 {
	return s.DirectSuccesses + s.DirectFailures + s.DownloadFirstSuccesses
}

// FailureRatio returns the share of outcomes that needed the download-first path
func (s DomainStats) FailureRatio() float64 {
	samples := s.Samples()
	if samples == 0 {
		return 0
	}
	return float64(s.DirectFailures+s.DownloadFirstSuccesses) / float64(samples)
}
