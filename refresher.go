package nextbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kltransit.dev/nextbus/downloader"
	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/parse"
)

const (
	DefaultRefreshTimeout = 30 * time.Second
	DefaultRefreshMaxSize = 1 << 20 // 1 MB
)

// Refresher fetches and decodes the realtime vehicle feed on demand,
// keeping the most recent successfully decoded snapshot across failed
// attempts.
//
// Refreshes never overlap: a Refresh issued while another is in
// flight blocks until the first completes. Snapshot swaps are atomic
// with respect to readers.
type Refresher struct {
	URL      string
	Timeout  time.Duration
	MaxSize  int
	CacheTTL time.Duration

	Downloader downloader.Downloader

	TimeNow func() time.Time

	// Serializes refreshes. Held across the fetch, so it must not
	// be used on the read paths.
	refreshMu sync.Mutex

	// Guards the snapshot and the manual refresh timestamp.
	mu                sync.Mutex
	lastKnownGood     []model.VehiclePosition
	lastManualRefresh time.Time
}

func NewRefresher(url string) *Refresher {
	return &Refresher{
		URL:               url,
		Timeout:           DefaultRefreshTimeout,
		MaxSize:           DefaultRefreshMaxSize,
		Downloader:        downloader.NewMemoryDownloader(),
		TimeNow:           time.Now,
		lastManualRefresh: time.Now(),
	}
}

// Refresh fetches the feed, decodes it, and replaces the last known
// good snapshot on success. On any failure the previous snapshot is
// left untouched. Fetch failures (transport, rate limiting, server
// status) and decode failures are returned as typed errors; match
// with errors.Is against downloader.ErrRateLimited, parse.ErrEmptyFeed
// and friends.
//
// Refresh also resets the manual refresh counter.
func (r *Refresher) Refresh(ctx context.Context) ([]model.VehiclePosition, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	r.mu.Lock()
	r.lastManualRefresh = r.TimeNow()
	r.mu.Unlock()

	body, err := r.Downloader.Get(ctx, r.URL, nil, downloader.GetOptions{
		Timeout:  r.Timeout,
		MaxSize:  r.MaxSize,
		Cache:    r.CacheTTL > 0,
		CacheTTL: r.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	positions, err := parse.DecodeVehicles(body)
	if err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	r.mu.Lock()
	r.lastKnownGood = positions
	r.mu.Unlock()

	log.Debug().Int("vehicles", len(positions)).Msg("refreshed vehicle feed")

	return positions, nil
}

// LastKnownGood returns the most recent successfully decoded
// snapshot, or nil if no refresh has succeeded yet. The returned
// slice is shared and must not be modified.
func (r *Refresher) LastKnownGood() []model.VehiclePosition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastKnownGood
}

// Whole seconds elapsed since the last Refresh call (or since
// construction, if none has been made).
func (r *Refresher) SecondsSinceLastManualRefresh() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.TimeNow().Sub(r.lastManualRefresh).Seconds())
}
