package services

import (
	"context"
	"errors"
	"log"
	"math"
	"net"
	"strings"
	"sync"
	"time"

	"portfolio-backend-go/internal/docstore"
	"portfolio-backend-go/internal/models"
)

const snapshotPeriod = 7 * 24 * time.Hour

// IncrementViewCount bumps the page view counter. Failures are logged and
// never reach the caller.
func (p *Portfolio) IncrementViewCount(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Failed to track view: %v", r)
		}
	}()
	if err := p.Docs.Increment(ctx, StatsDocPath, "views.count", 1); err != nil {
		log.Printf("Failed to track view: %v", err)
	}
}

// EnsureViewStats creates the stats document when it does not exist yet.
func (p *Portfolio) EnsureViewStats(ctx context.Context) error {
	_, err := p.Docs.Get(ctx, StatsDocPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return WrapError(err, "load view stats")
	}
	return p.Docs.Set(ctx, StatsDocPath, map[string]any{
		"views": map[string]any{
			"count":               0,
			"last_snapshot_count": 0,
			"weekly_views":        0,
			"trend_percentage":    0,
		},
	})
}

func (p *Portfolio) FetchViewStats(ctx context.Context) (models.ViewStats, error) {
	doc, err := p.Docs.Get(ctx, StatsDocPath)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.ViewStats{}, ErrNotFound("View stats do not exist.")
	}
	if err != nil {
		return models.ViewStats{}, WrapError(err, "fetch view stats")
	}
	views, _ := doc.Data["views"].(map[string]any)
	return FromStorage[models.ViewStats](Record(isoValue(views).(map[string]any)))
}

// RollWeeklySnapshot computes the next snapshot bookkeeping. It reports false
// when less than a week has passed since the last snapshot. Stats without a
// snapshot date only get their baseline recorded.
func RollWeeklySnapshot(stats models.ViewStats, now time.Time) (models.ViewStats, bool) {
	now = now.UTC()
	if stats.LastSnapshotDate == "" {
		stats.LastSnapshotDate = now.Format(ISOLayout)
		stats.LastSnapshotCount = stats.Count
		return stats, true
	}
	last, err := time.Parse(time.RFC3339Nano, stats.LastSnapshotDate)
	if err != nil || now.Sub(last) < snapshotPeriod {
		return stats, false
	}
	previous := stats.WeeklyViews
	if previous == 0 {
		previous = 1
	}
	weekly := stats.Count - stats.LastSnapshotCount
	stats.TrendPercentage = math.Round(float64(weekly-previous) / float64(previous) * 100)
	stats.WeeklyViews = weekly
	stats.LastSnapshotCount = stats.Count
	stats.LastSnapshotDate = now.Format(ISOLayout)
	return stats, true
}

// SnapshotViews rolls the weekly snapshot when one is due.
func (p *Portfolio) SnapshotViews(ctx context.Context, now time.Time) (models.ViewStats, error) {
	stats, err := p.FetchViewStats(ctx)
	if err != nil {
		return models.ViewStats{}, err
	}
	next, due := RollWeeklySnapshot(stats, now)
	if !due {
		return stats, nil
	}
	taken, _ := time.Parse(time.RFC3339Nano, next.LastSnapshotDate)
	err = p.Docs.Update(ctx, StatsDocPath, map[string]any{
		"views.last_snapshot_date":  taken,
		"views.last_snapshot_count": next.LastSnapshotCount,
		"views.weekly_views":        next.WeeklyViews,
		"views.trend_percentage":    next.TrendPercentage,
	})
	if err != nil {
		return models.ViewStats{}, WrapError(err, "update view stats")
	}
	return next, nil
}

// Visit describes one page load as seen by the analytics layer.
type Visit struct {
	Hostname string
	Admin    bool
}

type Analytics interface {
	TrackView(ctx context.Context, visit Visit)
}

// ShouldCountView excludes local development hosts and admin visits.
func ShouldCountView(visit Visit) bool {
	if visit.Admin {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(visit.Hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	switch {
	case host == "":
		return false
	case host == "localhost", strings.HasSuffix(host, ".localhost"):
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}

// ViewTracker counts views in the background so page requests never wait on
// the store.
type ViewTracker struct {
	Portfolio *Portfolio
	Timeout   time.Duration

	wg sync.WaitGroup
}

func (v *ViewTracker) TrackView(ctx context.Context, visit Visit) {
	if !ShouldCountView(visit) {
		return
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		v.Portfolio.IncrementViewCount(ctx)
	}()
}

// Wait blocks until in-flight increments finish.
func (v *ViewTracker) Wait() {
	v.wg.Wait()
}
