package slambook

import "fmt"

// PersistedProfile is the {id, name} pair the store returns for every
// upserted row. Rows are re-associated by id, never by array position.
type PersistedProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProfileCounts summarizes the profile side of a run.
type ProfileCounts struct {
	Total         int `json:"total"`
	Matched       int `json:"matched"`
	ExactMatch    int `json:"exactMatch"`
	NameOnlyMatch int `json:"nameOnlyMatch"`
	PartialMatch  int `json:"partialMatch"`
	Unmatched     int `json:"unmatched"`
	Failed        int `json:"failed"`
}

// AnswerCounts summarizes the answer-replacement side of a run. Failed is
// the number of derived answers that were not written; callers must inspect
// it rather than relying on HTTP status alone.
type AnswerCounts struct {
	Total   int `json:"total"`
	Deleted int `json:"deleted"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// MatchingDetails carries the full matching log, split by tier for
// operator review.
type MatchingDetails struct {
	TotalProcessed    int           `json:"totalProcessed"`
	MatchRate         string        `json:"matchRate"`
	UnmatchedProfiles []MatchDetail `json:"unmatchedProfiles"`
	PartialMatches    []MatchDetail `json:"partialMatches"`
	NameOnlyMatches   []MatchDetail `json:"nameOnlyMatches"`
}

// PersistedDetails lists what the upsert actually wrote, in submitted row
// order.
type PersistedDetails struct {
	ProfileIDs   []int64  `json:"profileIds"`
	ProfileNames []string `json:"profileNames"`
}

// Report is the structured result of one ingestion run, returned to the
// caller on success and recorded in the run log.
type Report struct {
	Success         bool             `json:"success"`
	Profiles        ProfileCounts    `json:"profiles"`
	QAAnswers       AnswerCounts     `json:"qaAnswers"`
	MatchingDetails MatchingDetails  `json:"matchingDetails"`
	Details         PersistedDetails `json:"details"`
	Message         string           `json:"message"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// BuildReport assembles the run report from the plan, the persisted upsert
// result, and the answer counters.
func BuildReport(plan *Plan, persisted []PersistedProfile, answers AnswerCounts, warnings []string) *Report {
	byID := make(map[int64]PersistedProfile, len(persisted))
	for _, p := range persisted {
		byID[p.ID] = p
	}

	details := PersistedDetails{
		ProfileIDs:   make([]int64, 0, len(plan.Records)),
		ProfileNames: make([]string, 0, len(plan.Records)),
	}
	failed := 0
	for _, rec := range plan.Records {
		p, ok := byID[rec.ID]
		if !ok {
			failed++
			continue
		}
		details.ProfileIDs = append(details.ProfileIDs, p.ID)
		details.ProfileNames = append(details.ProfileNames, p.Name)
	}

	md := MatchingDetails{
		TotalProcessed:    plan.Counts.Total(),
		MatchRate:         matchRate(plan.Counts),
		UnmatchedProfiles: make([]MatchDetail, 0),
		PartialMatches:    make([]MatchDetail, 0),
		NameOnlyMatches:   make([]MatchDetail, 0),
	}
	for _, d := range plan.Details {
		switch d.MatchType {
		case MatchNone:
			md.UnmatchedProfiles = append(md.UnmatchedProfiles, d)
		case MatchPartial:
			md.PartialMatches = append(md.PartialMatches, d)
		case MatchNameOnly:
			md.NameOnlyMatches = append(md.NameOnlyMatches, d)
		}
	}

	return &Report{
		Success: true,
		Profiles: ProfileCounts{
			Total:         plan.Counts.Total(),
			Matched:       plan.Counts.Matched(),
			ExactMatch:    plan.Counts.Exact,
			NameOnlyMatch: plan.Counts.NameOnly,
			PartialMatch:  plan.Counts.Partial,
			Unmatched:     plan.Counts.None,
			Failed:        failed,
		},
		QAAnswers:       answers,
		MatchingDetails: md,
		Details:         details,
		Message: fmt.Sprintf("processed %d rows: %d matched to existing profiles, %d created",
			plan.Counts.Total(), plan.Counts.Matched(), plan.Counts.None),
		Warnings: warnings,
	}
}

func matchRate(c TierCounts) string {
	if c.Total() == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(c.Matched())/float64(c.Total())*100)
}
