// internal/dashboard/config.go
package dashboard

import (
	"time"

	"skillmatch/internal/common/config"
	viewprojector "skillmatch/internal/dashboard/view-projector"
)

type Config struct {
	ResyncTimeout    time.Duration
	SearchTimeout    time.Duration
	DefaultFilter    viewprojector.Filter
	DefaultSort      viewprojector.SortBy
	MaxNotifications int
}

func LoadConfig(dash config.DashboardConfig, search config.SearchConfig) (*Config, error) {
	filter, err := viewprojector.ParseFilter(dash.DefaultWorkMode)
	if err != nil {
		return nil, err
	}
	sortBy, err := viewprojector.ParseSortBy(dash.DefaultSort)
	if err != nil {
		return nil, err
	}
	return &Config{
		ResyncTimeout:    config.GetDuration(dash.ResyncTimeout),
		SearchTimeout:    config.GetDuration(search.Timeout),
		DefaultFilter:    filter,
		DefaultSort:      sortBy,
		MaxNotifications: 20,
	}, nil
}
