package viewprojector

import (
	"strings"
	"testing"
	"time"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posting(role string, mode models.WorkMode, day int, matches int) models.JobPosting {
	p := models.JobPosting{
		CompanyName: "Acme",
		Role:        role,
		WorkMode:    mode,
		CreatedAt:   models.NewTimestamp(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)),
	}
	for i := 0; i < matches; i++ {
		p.MatchingCandidates = append(p.MatchingCandidates, models.MatchingCandidate{MatchScore: float64(50 + i)})
	}
	return p
}

func roles(postings []models.JobPosting) []string {
	out := make([]string, len(postings))
	for i, p := range postings {
		out[i] = p.Role
	}
	return out
}

func fixture() []models.JobPosting {
	return []models.JobPosting{
		posting("oldest", "onsite", 1, 3),
		posting("newest", "Remote", 20, 1),
		posting("middle", "remote", 10, 3),
		posting("hybrid", "hybrid", 5, 0),
	}
}

func TestProject_AllByDate(t *testing.T) {
	in := fixture()
	out := Project(in, Filter{WorkMode: FilterAll}, SortByDate)

	assert.Len(t, out, len(in))
	assert.Equal(t, []string{"newest", "middle", "hybrid", "oldest"}, roles(out))
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].CreatedAt.After(out[i-1].CreatedAt.Time))
	}
}

func TestProject_FilterIsCaseInsensitive(t *testing.T) {
	for _, sortBy := range []SortBy{SortByDate, SortByMatchCount} {
		out := Project(fixture(), Filter{WorkMode: "remote"}, sortBy)
		require.Len(t, out, 2)
		for _, p := range out {
			assert.True(t, strings.EqualFold("remote", string(p.WorkMode)))
		}
	}

	out := Project(fixture(), Filter{WorkMode: "REMOTE"}, SortByDate)
	assert.Equal(t, []string{"newest", "middle"}, roles(out))
}

func TestProject_MatchCountIsStable(t *testing.T) {
	out := Project(fixture(), Filter{WorkMode: FilterAll}, SortByMatchCount)
	// "oldest" and "middle" tie at 3 and keep their input order.
	assert.Equal(t, []string{"oldest", "middle", "newest", "hybrid"}, roles(out))
}

func TestProject_DateTiesKeepInputOrder(t *testing.T) {
	in := []models.JobPosting{
		posting("a", "onsite", 3, 0),
		posting("b", "onsite", 3, 0),
		posting("c", "onsite", 3, 0),
	}
	assert.Equal(t, []string{"a", "b", "c"}, roles(Project(in, Filter{}, SortByDate)))
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := make([]models.JobPosting, len(in))
	for i, p := range in {
		before[i] = p.Clone()
	}

	out := Project(in, Filter{WorkMode: FilterAll}, SortByMatchCount)
	out[0].Role = "changed"
	out[0].MatchingCandidates[0].MatchScore = -1

	assert.Equal(t, before, in)
}

func TestProject_Empty(t *testing.T) {
	out := Project(nil, Filter{WorkMode: "remote"}, SortByDate)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f.WorkMode)

	f, err = ParseFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f.WorkMode)

	f, err = ParseFilter("Hybrid")
	require.NoError(t, err)
	assert.Equal(t, "hybrid", f.WorkMode)

	_, err = ParseFilter("mars")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestParseSortBy(t *testing.T) {
	s, err := ParseSortBy("")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, s)

	s, err = ParseSortBy("matchCount")
	require.NoError(t, err)
	assert.Equal(t, SortByMatchCount, s)

	_, err = ParseSortBy("salary")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
