package projections

import (
	"context"
	"fmt"
	"time"

	"society/internal/adapters/storage/member"
	"society/internal/domain/content"
	domainMember "society/internal/domain/member"
	"society/internal/domain/ringchart"
)

// DashboardContentStore counts published content per category.
type DashboardContentStore interface {
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// DashboardMemberStore counts members.
type DashboardMemberStore interface {
	Count(ctx context.Context, filter member.ListFilter) (int, error)
}

// GetDashboardDatasetDeps holds dependencies for the dashboard dataset projection.
type GetDashboardDatasetDeps struct {
	ContentStore DashboardContentStore
	MemberStore  DashboardMemberStore
}

// QueryGetDashboardDataset counts every dashboard category in declared order.
// "users" are active members; every other category is published content.
// PRE: deps stores are non-nil
// POST: Returns a validated dataset covering all categories, zeros included
func QueryGetDashboardDataset(ctx context.Context, deps GetDashboardDatasetDeps) (ringchart.Dataset, error) {
	counts, err := deps.ContentStore.CountByCategory(ctx)
	if err != nil {
		return ringchart.Dataset{}, fmt.Errorf("count content: %w", err)
	}
	users, err := deps.MemberStore.Count(ctx, member.ListFilter{Status: domainMember.StatusActive})
	if err != nil {
		return ringchart.Dataset{}, fmt.Errorf("count members: %w", err)
	}

	rows := make([]ringchart.CategoryCount, 0, len(content.Categories))
	for _, category := range content.Categories {
		n := counts[category]
		if category == content.CategoryUsers {
			n = users
		}
		rows = append(rows, ringchart.CategoryCount{Category: category, Count: float64(n)})
	}
	return ringchart.NewDataset(content.CategoryColors, rows...)
}

// DashboardStatsRow is one category line of the dashboard statistics.
type DashboardStatsRow struct {
	Category   string
	Label      string
	Color      string
	Count      int
	Percentage float64 // 0 for empty categories
}

// DashboardStats summarises the dataset behind the ring chart.
type DashboardStats struct {
	Total       int
	Rows        []DashboardStatsRow
	GeneratedAt time.Time
}

// GetDashboardStatsDeps holds dependencies for the dashboard statistics projection.
type GetDashboardStatsDeps struct {
	DatasetDeps GetDashboardDatasetDeps
	Now         func() time.Time // optional
}

// QueryGetDashboardStats returns per-category counts and percentages.
// Percentages come from the chart layout so the table and the wedges agree.
// PRE: deps stores are non-nil
// POST: Rows cover every category in declared order
func QueryGetDashboardStats(ctx context.Context, deps GetDashboardStatsDeps) (DashboardStats, error) {
	ds, err := QueryGetDashboardDataset(ctx, deps.DatasetDeps)
	if err != nil {
		return DashboardStats{}, err
	}
	return StatsFromDataset(ds, now(deps.Now)), nil
}

// StatsFromDataset builds the statistics table for an already loaded dataset.
func StatsFromDataset(ds ringchart.Dataset, at time.Time) DashboardStats {
	percentages := make(map[string]float64)
	for _, s := range ringchart.Layout(ds, ringchart.Point{}, 1) {
		percentages[s.Category] = s.Percentage
	}

	stats := DashboardStats{Total: int(ds.Total()), GeneratedAt: at}
	for _, c := range ds.Counts {
		stats.Rows = append(stats.Rows, DashboardStatsRow{
			Category:   c.Category,
			Label:      content.Label(c.Category),
			Color:      ds.Colors[c.Category],
			Count:      int(c.Count),
			Percentage: percentages[c.Category],
		})
	}
	return stats
}

func now(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now()
	}
	return fn()
}
