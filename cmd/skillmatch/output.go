// cmd/skillmatch/output.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"skillmatch/internal/dashboard"
	candidatesearch "skillmatch/internal/dashboard/candidate-search"
	"skillmatch/internal/models"
)

const dateLayout = "2006-01-02 15:04"

func renderView(w io.Writer, view dashboard.View) {
	fmt.Fprintf(w, "\n=== %s ===\n", orDash(view.Company))
	if !view.SyncedAt.IsZero() {
		fmt.Fprintf(w, "Synced: %s\n", view.SyncedAt.Local().Format(dateLayout))
	}
	fmt.Fprintln(w)

	stats := tablewriter.NewWriter(w)
	stats.Header("Metric", "Value")
	stats.Append("Total jobs", fmt.Sprintf("%d", view.Stats.TotalJobs))
	stats.Append("Active jobs", fmt.Sprintf("%d", view.Stats.ActiveJobs))
	stats.Append("Total matches", fmt.Sprintf("%d", view.Stats.TotalMatches))
	stats.Append("Average match", fmt.Sprintf("%d%%", view.Stats.AverageMatchScore))
	stats.Render()

	if len(view.Postings) == 0 {
		fmt.Fprintln(w, "\nNo postings yet.")
		return
	}

	for _, p := range view.Postings {
		fmt.Fprintf(w, "\n--- %s (%s, %s) posted %s ---\n", p.Role, p.HiringType, p.WorkMode, formatTime(p.CreatedAt))
		renderCandidates(w, p.MatchingCandidates)
	}
}

func renderCandidates(w io.Writer, candidates []models.MatchingCandidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No matching candidates.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Email", "Score", "Skills", "Resume")
	for _, c := range candidates {
		table.Append(
			orDash(c.PersonalInfo.Name),
			orDash(c.PersonalInfo.Email),
			fmt.Sprintf("%.0f%%", c.MatchScore),
			orDash(strings.Join(c.MatchingSkills, ", ")),
			orDash(c.ResumeURL),
		)
	}
	table.Render()
}

func renderSearch(w io.Writer, snap candidatesearch.Snapshot) {
	switch snap.State {
	case candidatesearch.StateFailed:
		fmt.Fprintf(w, "Search for %q failed: %s\n", snap.Query, snap.Error)
		return
	case candidatesearch.StateIdle:
		fmt.Fprintln(w, "No search has been run.")
		return
	}
	fmt.Fprintf(w, "%d result(s) for %q\n", len(snap.Results), snap.Query)
	if len(snap.Results) > 0 {
		renderCandidates(w, snap.Results)
	}
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(dateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
