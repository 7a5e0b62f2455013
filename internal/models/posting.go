// internal/models/posting.go
package models

import (
	"encoding/json"
	"strings"
)

type HiringType string

const (
	HiringFullTime HiringType = "full-time"
	HiringPartTime HiringType = "part-time"
	HiringContract HiringType = "contract"
	HiringIntern   HiringType = "intern"
)

// ParseHiringType accepts the canonical values case-insensitively.
// "internship" is the value older forms submit for HiringIntern.
func ParseHiringType(s string) (HiringType, bool) {
	switch v := HiringType(strings.ToLower(strings.TrimSpace(s))); v {
	case HiringFullTime, HiringPartTime, HiringContract, HiringIntern:
		return v, true
	case "internship":
		return HiringIntern, true
	default:
		return "", false
	}
}

type WorkMode string

const (
	WorkOnsite WorkMode = "onsite"
	WorkRemote WorkMode = "remote"
	WorkHybrid WorkMode = "hybrid"
)

func ParseWorkMode(s string) (WorkMode, bool) {
	switch v := WorkMode(strings.ToLower(strings.TrimSpace(s))); v {
	case WorkOnsite, WorkRemote, WorkHybrid:
		return v, true
	default:
		return "", false
	}
}

// JobPosting is the companies/{companyName} document together with the
// candidate matches the backend computed for it.
type JobPosting struct {
	CompanyName        string              `json:"companyName"`
	CreatedAt          Timestamp           `json:"createdAt"`
	HiringType         HiringType          `json:"hiringType"`
	WorkMode           WorkMode            `json:"workMode"`
	Role               string              `json:"role"`
	Description        string              `json:"description"`
	MatchingCandidates []MatchingCandidate `json:"matchingCandidates"`
}

// Clone returns a copy sharing no slices with p.
func (p JobPosting) Clone() JobPosting {
	out := p
	if p.MatchingCandidates != nil {
		out.MatchingCandidates = make([]MatchingCandidate, len(p.MatchingCandidates))
		for i, c := range p.MatchingCandidates {
			out.MatchingCandidates[i] = c.Clone()
		}
	}
	return out
}

type PersonalInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// MatchingCandidate is one ranked résumé. DocumentID references the résumé
// store and is only ever used for lookup.
type MatchingCandidate struct {
	DocumentID       string       `json:"documentId"`
	MatchScore       float64      `json:"matchScore"`
	MatchExplanation string       `json:"matchExplanation,omitempty"`
	MatchingSkills   Skills       `json:"matchingSkills,omitempty"`
	PersonalInfo     PersonalInfo `json:"personalInfo"`
	ResumeURL        string       `json:"resumeUrl"`
}

func (c MatchingCandidate) Clone() MatchingCandidate {
	out := c
	if c.MatchingSkills != nil {
		out.MatchingSkills = append(Skills(nil), c.MatchingSkills...)
	}
	return out
}

// UnmarshalJSON accepts both the camelCase document form and the snake_case
// form the matching backend emits.
func (c *MatchingCandidate) UnmarshalJSON(b []byte) error {
	var wire struct {
		DocumentID       string        `json:"documentId"`
		DocumentIDSnake  string        `json:"document_id"`
		MatchScore       *float64      `json:"matchScore"`
		MatchScoreSnake  *float64      `json:"match_score"`
		Explanation      string        `json:"matchExplanation"`
		ExplanationSnake string        `json:"match_explanation"`
		Skills           Skills        `json:"matchingSkills"`
		SkillsSnake      Skills        `json:"matching_skills"`
		SkillsPlain      Skills        `json:"skills"`
		PersonalInfo     *PersonalInfo `json:"personalInfo"`
		PersonalSnake    *PersonalInfo `json:"personal_info"`
		ResumeURL        string        `json:"resumeUrl"`
		ResumeURLSnake   string        `json:"resume_url"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	*c = MatchingCandidate{
		DocumentID:       firstNonEmpty(wire.DocumentID, wire.DocumentIDSnake),
		MatchExplanation: firstNonEmpty(wire.Explanation, wire.ExplanationSnake),
		ResumeURL:        firstNonEmpty(wire.ResumeURL, wire.ResumeURLSnake),
	}
	switch {
	case wire.MatchScore != nil:
		c.MatchScore = *wire.MatchScore
	case wire.MatchScoreSnake != nil:
		c.MatchScore = *wire.MatchScoreSnake
	}
	switch {
	case wire.Skills != nil:
		c.MatchingSkills = wire.Skills
	case wire.SkillsSnake != nil:
		c.MatchingSkills = wire.SkillsSnake
	case wire.SkillsPlain != nil:
		c.MatchingSkills = wire.SkillsPlain
	}
	switch {
	case wire.PersonalInfo != nil:
		c.PersonalInfo = *wire.PersonalInfo
	case wire.PersonalSnake != nil:
		c.PersonalInfo = *wire.PersonalSnake
	}
	return nil
}

// Skills is an ordered skill list. Parsed résumés store skills as a single
// comma-separated string, so both forms decode.
type Skills []string

func (s *Skills) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*s = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err != nil {
		return err
	}
	out := Skills{}
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*s = out
	return nil
}

// SearchResult is a candidate returned by keyword search. Explanation and
// skills are optional here.
type SearchResult = MatchingCandidate

// CompanyStats is derived from the posting snapshot and never stored.
type CompanyStats struct {
	TotalJobs         int `json:"totalJobs"`
	TotalMatches      int `json:"totalMatches"`
	AverageMatchScore int `json:"averageMatchScore"`
	ActiveJobs        int `json:"activeJobs"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
