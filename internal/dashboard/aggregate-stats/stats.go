// internal/dashboard/aggregate-stats/stats.go
package aggregatestats

import (
	"math"

	"skillmatch/internal/models"
)

// ComputeStats derives the dashboard summary from a posting snapshot.
// A posting with no candidates contributes an average of 0.
func ComputeStats(postings []models.JobPosting) models.CompanyStats {
	if len(postings) == 0 {
		return models.CompanyStats{}
	}

	totalMatches := 0
	sumOfAverages := 0.0
	for _, p := range postings {
		totalMatches += len(p.MatchingCandidates)
		sumOfAverages += postingAverage(p)
	}

	return models.CompanyStats{
		TotalJobs:         len(postings),
		TotalMatches:      totalMatches,
		AverageMatchScore: int(math.Round(sumOfAverages / float64(len(postings)))),
		ActiveJobs:        len(postings),
	}
}

func postingAverage(p models.JobPosting) float64 {
	if len(p.MatchingCandidates) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range p.MatchingCandidates {
		sum += c.MatchScore
	}
	return sum / float64(len(p.MatchingCandidates))
}
