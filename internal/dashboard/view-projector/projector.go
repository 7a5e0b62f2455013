// internal/dashboard/view-projector/projector.go
package viewprojector

import (
	"sort"
	"strings"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/models"
)

// FilterAll disables workMode filtering.
const FilterAll = "all"

type SortBy string

const (
	SortByDate       SortBy = "date"
	SortByMatchCount SortBy = "matchCount"
)

type Filter struct {
	WorkMode string `json:"workMode"`
}

// ParseFilter accepts "all" or a known work mode, case-insensitively.
// An empty value means "all".
func ParseFilter(workMode string) (Filter, error) {
	v := strings.TrimSpace(workMode)
	if v == "" || strings.EqualFold(v, FilterAll) {
		return Filter{WorkMode: FilterAll}, nil
	}
	mode, ok := models.ParseWorkMode(v)
	if !ok {
		return Filter{}, errors.NewValidationError("workMode", "workMode must be all, onsite, remote or hybrid")
	}
	return Filter{WorkMode: string(mode)}, nil
}

// ParseSortBy accepts "date" or "matchCount". An empty value means "date".
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return SortByDate, nil
	case "matchcount", "match_count", "matches":
		return SortByMatchCount, nil
	default:
		return "", errors.NewValidationError("sortBy", "sortBy must be date or matchCount")
	}
}

// Project filters and orders postings for display. The input slice and its
// postings are left untouched; ties keep their input order.
func Project(postings []models.JobPosting, filter Filter, sortBy SortBy) []models.JobPosting {
	out := make([]models.JobPosting, 0, len(postings))
	for _, p := range postings {
		if matchesFilter(p, filter) {
			out = append(out, p.Clone())
		}
	}

	switch sortBy {
	case SortByMatchCount:
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].MatchingCandidates) > len(out[j].MatchingCandidates)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt.Time)
		})
	}
	return out
}

func matchesFilter(p models.JobPosting, filter Filter) bool {
	if filter.WorkMode == "" || strings.EqualFold(filter.WorkMode, FilterAll) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(string(p.WorkMode)), filter.WorkMode)
}
