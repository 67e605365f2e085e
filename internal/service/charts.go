package service

import (
	"fmt"
	"strings"
	"time"

	"task-manager/internal/model"
)

// ChartSeries is one labelled data set.
type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

func (c *ChartSeries) add(label string, value int) {
	c.Labels = append(c.Labels, label)
	c.Values = append(c.Values, value)
}

// Charts holds the series behind the dashboard charts.
type Charts struct {
	Completion ChartSeries `json:"completion"`
	Category   ChartSeries `json:"category"`
	Priority   ChartSeries `json:"priority"`
	Trend      ChartSeries `json:"trend"`
}

// BuildCharts derives chart series from the full collection. Trend counts
// completions per day over the last seven days, today last.
func BuildCharts(tasks []model.Task, now time.Time) Charts {
	today := model.DateOf(now)
	stats := ComputeStatistics(tasks, today)

	var charts Charts
	charts.Completion.add("Completed", stats.Completed)
	charts.Completion.add("Remaining", stats.Active)

	for _, c := range model.Categories() {
		if n := stats.ByCategory[c]; n > 0 {
			charts.Category.add(c.Label(), n)
		}
	}
	for _, p := range model.Priorities() {
		charts.Priority.add(p.Label(), stats.ByPriority[p])
	}

	perDay := make(map[model.Date]int)
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			perDay[model.DateOf(t.CompletedAt.In(now.Location()))]++
		}
	}
	for i := 6; i >= 0; i-- {
		day := today.AddDays(-i)
		charts.Trend.add(day.Format("Mon"), perDay[day])
	}
	return charts
}

// Bars renders the series as a fixed-width text bar chart.
func (c ChartSeries) Bars(width int) string {
	if width <= 0 {
		width = 10
	}
	peak, labelWidth := 0, 0
	for i, v := range c.Values {
		peak = max(peak, v)
		labelWidth = max(labelWidth, len(c.Labels[i]))
	}

	var b strings.Builder
	for i, v := range c.Values {
		filled := 0
		if peak > 0 {
			filled = (v*width + peak - 1) / peak
		}
		fmt.Fprintf(&b, "%-*s %s%s %d\n", labelWidth, c.Labels[i],
			strings.Repeat("█", filled), strings.Repeat("░", width-filled), v)
	}
	return strings.TrimRight(b.String(), "\n")
}
