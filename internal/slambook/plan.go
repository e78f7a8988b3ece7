package slambook

import (
	"strings"

	"github.com/rotisserie/eris"
)

// UpsertRecord is one profile row submitted to the batch upsert, keyed by
// id: an existing id for matched rows, a reserved new id otherwise.
type UpsertRecord struct {
	ID                      int64   `json:"id"`
	Name                    string  `json:"name"`
	Nicknames               string  `json:"nicknames"`
	Location                string  `json:"location"`
	CurrentJob              string  `json:"current_job"`
	YearGraduated           string  `json:"year_graduated"`
	DesignationOrganisation string  `json:"designation_organisation"`
	ProfileImageURL         *string `json:"profile_image_url,omitempty"`
}

// AnswerRecord is one non-empty slambook answer bound to a profile.
type AnswerRecord struct {
	ProfileID  int64  `json:"profile_id"`
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// MatchDetail is the per-row entry of the matching log surfaced to
// operators in the ingestion report.
type MatchDetail struct {
	CSVName    string    `json:"csvName"`
	CSVYear    string    `json:"csvYear"`
	MatchType  MatchType `json:"matchType"`
	ProfileID  int64     `json:"profileId"`
	Confidence int       `json:"confidence"`
	Reason     string    `json:"reason"`
}

// TierCounts accumulates per-tier row counts for one run.
type TierCounts struct {
	Exact    int
	NameOnly int
	Partial  int
	None     int
}

// Matched is the number of rows reconciled to an existing profile.
func (c TierCounts) Matched() int { return c.Exact + c.NameOnly + c.Partial }

// Total is the number of rows planned.
func (c TierCounts) Total() int { return c.Matched() + c.None }

// Plan is the output of merge planning: one upsert record per row in row
// order, the matching log, and tier counters.
type Plan struct {
	Records []UpsertRecord
	Details []MatchDetail
	Counts  TierCounts
}

// IDBlock hands out store-reserved profile ids in row order. Reserving a
// block up front (rather than computing max(id)+1 client-side) keeps
// concurrent uploads from assigning colliding ids; unused reservations are
// harmless sequence gaps.
type IDBlock struct {
	ids  []int64
	next int
}

// NewIDBlock wraps a reserved id slice.
func NewIDBlock(ids []int64) *IDBlock { return &IDBlock{ids: ids} }

// Next returns the next reserved id, or false when the block is exhausted.
func (b *IDBlock) Next() (int64, bool) {
	if b.next >= len(b.ids) {
		return 0, false
	}
	id := b.ids[b.next]
	b.next++
	return id, true
}

// BuildPlan turns normalized rows into upsert records. Matched rows reuse
// the existing profile id and preserve its image URL when one was already
// uploaded: the sheet has no image column, so an update must never null out
// a photo. Unmatched rows consume ids from the reserved block in row order.
// BuildPlan is pure given its inputs; it performs no I/O.
func BuildPlan(rows []Row, ix *Index, ids *IDBlock) (*Plan, error) {
	plan := &Plan{
		Records: make([]UpsertRecord, 0, len(rows)),
		Details: make([]MatchDetail, 0, len(rows)),
	}

	for _, row := range rows {
		year := GradYear(row.TenureRaw)
		res := ix.Match(row.Name, year)

		rec := UpsertRecord{
			Name:                    strings.TrimSpace(row.Name),
			Nicknames:               row.Nickname,
			Location:                row.Location,
			CurrentJob:              row.CurrentJob,
			YearGraduated:           year,
			DesignationOrganisation: row.DesignationOrg,
		}

		if res.Profile != nil {
			rec.ID = res.Profile.ID
			if res.Profile.ProfileImageURL != nil {
				rec.ProfileImageURL = res.Profile.ProfileImageURL
			}
			switch res.Type {
			case MatchExact:
				plan.Counts.Exact++
			case MatchNameOnly:
				plan.Counts.NameOnly++
			case MatchPartial:
				plan.Counts.Partial++
			}
		} else {
			id, ok := ids.Next()
			if !ok {
				return nil, eris.Errorf("plan: reserved id block exhausted at row %d", row.RowNumber)
			}
			rec.ID = id
			plan.Counts.None++
		}

		plan.Records = append(plan.Records, rec)
		plan.Details = append(plan.Details, MatchDetail{
			CSVName:    row.Name,
			CSVYear:    year,
			MatchType:  res.Type,
			ProfileID:  rec.ID,
			Confidence: res.Confidence,
			Reason:     res.Reason,
		})
	}

	return plan, nil
}

// DeriveAnswers builds the answer set for the planned rows: one record per
// non-empty trimmed answer, bound to the planned profile id. A row with all
// ten answers blank contributes nothing, and the replace-by-profile-set
// delete guarantees it ends the run with zero stored answers.
func DeriveAnswers(rows []Row, records []UpsertRecord) []AnswerRecord {
	var answers []AnswerRecord
	for i, row := range rows {
		for q, answer := range row.Answers {
			answer = strings.TrimSpace(answer)
			if answer == "" {
				continue
			}
			answers = append(answers, AnswerRecord{
				ProfileID:  records[i].ID,
				QuestionID: q + 1,
				Answer:     answer,
			})
		}
	}
	return answers
}
