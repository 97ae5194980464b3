package availability

import (
	"sort"

	"github.com/jwalitptl/hospital-api/internal/model"
)

// Expand projects the weekly pattern onto the days [from, from+days). Each
// available entry whose weekday matches a day yields one window; windows of
// the same day are ordered by start time and never merged.
func Expand(entries []*model.WeeklyAvailability, from model.Date, days int) []model.AvailabilityWindow {
	if days <= 0 || len(entries) == 0 {
		return nil
	}

	byDay := make(map[int][]*model.WeeklyAvailability, 7)
	for _, e := range entries {
		if e == nil || !e.IsAvailable {
			continue
		}
		byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], e)
	}
	for _, list := range byDay {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].StartTime.Before(list[j].StartTime)
		})
	}

	var windows []model.AvailabilityWindow
	for offset := 0; offset < days; offset++ {
		date := from.AddDays(offset)
		for _, e := range byDay[date.Weekday()] {
			windows = append(windows, model.AvailabilityWindow{
				Date:      date,
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
			})
		}
	}
	return windows
}
