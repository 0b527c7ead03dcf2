/*
metrics.go - Reporting rollups

PURPOSE:
  Produces the metrics snapshot served at /metrics: global transaction and
  user counts, overall and average balance, and a per-day breakdown covering
  the last four days. Pure composition of store counts and accumulator
  aggregates - no independent state, nothing cached.
*/
package ledger

import (
	"context"
	"time"
)

// MetricsAggregator composes read-only aggregates into a snapshot.
type MetricsAggregator struct {
	Store    Store
	Balances *Accumulator
}

// NewMetricsAggregator creates a metrics aggregator over the given store.
func NewMetricsAggregator(store Store) *MetricsAggregator {
	return &MetricsAggregator{Store: store, Balances: NewAccumulator(store)}
}

// Snapshot builds the rollup for the given day: totals plus
// DayMetrics(today-3) .. DayMetrics(today), ascending.
func (m *MetricsAggregator) Snapshot(ctx context.Context, today time.Time) (MetricsSnapshot, error) {
	today = StartOfDay(today)

	countTx, err := m.Store.CountTransactions(ctx)
	if err != nil {
		return MetricsSnapshot{}, &StorageError{Op: "count transactions", Err: err}
	}
	countUsers, err := m.Store.CountUsers(ctx)
	if err != nil {
		return MetricsSnapshot{}, &StorageError{Op: "count users", Err: err}
	}
	overall, err := m.Balances.GlobalBalance(ctx)
	if err != nil {
		return MetricsSnapshot{}, err
	}
	avg, err := m.Balances.AverageBalance(ctx)
	if err != nil {
		return MetricsSnapshot{}, err
	}

	days := make([]DayMetrics, 0, 4)
	for offset := 3; offset >= 0; offset-- {
		day, err := m.Balances.DayMetrics(ctx, today.AddDate(0, 0, -offset))
		if err != nil {
			return MetricsSnapshot{}, err
		}
		days = append(days, day)
	}

	return MetricsSnapshot{
		Today:             today,
		CountTransactions: countTx,
		OverallBalance:    overall,
		CountUsers:        countUsers,
		AvgBalance:        avg,
		Days:              days,
	}, nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
