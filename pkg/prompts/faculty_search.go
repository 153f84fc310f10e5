package prompts

import (
	"fmt"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/jsonutil"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

// DefaultMaxResults caps a faculty search when the caller sets no limit.
const DefaultMaxResults = 10

// FacultySearchSystemMessage frames every faculty-related call.
const FacultySearchSystemMessage = "You are a graduate admissions researcher. " +
	"You find faculty members who are a strong fit for a specific student and report verifiable facts about them and their universities. " +
	"Only report people and figures you can find on official university pages or reputable ranking sites, and cite the page."

// ============================================================================
// Requirement parsing
// ============================================================================

// SearchParamsDraft is the structured form of free-text search requirements.
type SearchParamsDraft struct {
	Countries         jsonutil.Strings `json:"countries"`
	Field             jsonutil.String  `json:"field"`
	ResearchInterests jsonutil.Strings `json:"research_interests"`
	DegreeLevel       jsonutil.String  `json:"degree_level"`
	UniversityTier    jsonutil.String  `json:"university_tier"`
	Keywords          jsonutil.Strings `json:"keywords"`
	MaxResults        jsonutil.Int     `json:"max_results"`
}

// SearchParamsSchema is the response schema for SearchParamsDraft.
func SearchParamsSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"countries":          llm.ArrayOf(llm.String(""), "target countries in English, e.g. USA, UK, Canada"),
		"field":              llm.String("broad academic field, e.g. Computer Science"),
		"research_interests": llm.ArrayOf(llm.String(""), "specific research topics"),
		"degree_level":       llm.String("degree sought, PhD or Master; empty if not stated"),
		"university_tier":    llm.String("e.g. QS top 50; empty if not stated"),
		"keywords":           llm.ArrayOf(llm.String(""), "other search keywords"),
		"max_results":        llm.Integer("number of faculty requested, 0 if not stated"),
	}, "countries", "field")
}

// BuildRequirementsPrompt asks the model to structure a consultant's free-text request.
func BuildRequirementsPrompt(text string) string {
	var prompt strings.Builder

	prompt.WriteString("# Faculty Search Requirements\n\n")
	prompt.WriteString("A consultant described what kind of supervisors a student is looking for. ")
	prompt.WriteString("Convert the description into structured search parameters. ")
	prompt.WriteString("Translate country and field names to English. Leave fields empty rather than guessing.\n\n")
	prompt.WriteString("## Description\n\n")
	prompt.WriteString(text)
	prompt.WriteString("\n")

	return prompt.String()
}

// ToParams converts the draft. clientID is carried through unchanged.
func (d *SearchParamsDraft) ToParams(clientID string) models.SearchParams {
	return models.SearchParams{
		Countries:         nonEmpty(d.Countries),
		Field:             string(d.Field),
		ResearchInterests: nonEmpty(d.ResearchInterests),
		DegreeLevel:       string(d.DegreeLevel),
		UniversityTier:    string(d.UniversityTier),
		Keywords:          nonEmpty(d.Keywords),
		MaxResults:        max(int(d.MaxResults), 0),
		ClientID:          clientID,
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// Faculty matching
// ============================================================================

// SourcedDraft is a fact with the page it came from.
type SourcedDraft struct {
	Value     jsonutil.String `json:"value"`
	SourceURL jsonutil.String `json:"source_url"`
}

// FacultyMemberDraft is one faculty candidate as reported by the model.
type FacultyMemberDraft struct {
	Name             jsonutil.String  `json:"name"`
	Title            jsonutil.String  `json:"title"`
	University       jsonutil.String  `json:"university"`
	Department       jsonutil.String  `json:"department"`
	ResearchAreas    jsonutil.Strings `json:"research_areas"`
	Email            jsonutil.String  `json:"email"`
	ProfileURL       jsonutil.String  `json:"profile_url"`
	LabURL           jsonutil.String  `json:"lab_url"`
	RecentActivity   jsonutil.String  `json:"recent_activity"`
	RecruitingStatus jsonutil.String  `json:"recruiting_status"`
	Location         jsonutil.String  `json:"location"`
	MatchScore       jsonutil.Int     `json:"match_score"`
	MatchReason      jsonutil.String  `json:"match_reason"`
}

// FacultyMatchDraft is one ranked search result.
type FacultyMatchDraft struct {
	University          jsonutil.String    `json:"university"`
	QSRanking           SourcedDraft       `json:"qs_ranking"`
	USNewsRanking       SourcedDraft       `json:"us_news_ranking"`
	ApplicationDeadline SourcedDraft       `json:"application_deadline"`
	Tuition             SourcedDraft       `json:"tuition"`
	Faculty             FacultyMemberDraft `json:"faculty"`
}

// FacultyMatchesDraft wraps the result list.
type FacultyMatchesDraft struct {
	Matches []FacultyMatchDraft `json:"matches"`
}

// ToMember converts the draft. Scores are clamped to 0-100.
func (d *FacultyMemberDraft) ToMember() models.FacultyMember {
	return models.FacultyMember{
		Name:             string(d.Name),
		Title:            string(d.Title),
		University:       string(d.University),
		Department:       string(d.Department),
		ResearchAreas:    nonEmpty(d.ResearchAreas),
		Email:            string(d.Email),
		ProfileURL:       string(d.ProfileURL),
		LabURL:           string(d.LabURL),
		RecentActivity:   string(d.RecentActivity),
		RecruitingStatus: string(d.RecruitingStatus),
		Location:         string(d.Location),
		MatchScore:       min(max(int(d.MatchScore), 0), 100),
		MatchReason:      string(d.MatchReason),
	}
}

// ToMatch converts the draft. A faculty member without a university inherits
// the match's university.
func (d *FacultyMatchDraft) ToMatch() models.FacultyMatch {
	m := models.FacultyMatch{
		University:          string(d.University),
		QSRanking:           d.QSRanking.toValue(),
		USNewsRanking:       d.USNewsRanking.toValue(),
		ApplicationDeadline: d.ApplicationDeadline.toValue(),
		Tuition:             d.Tuition.toValue(),
		Faculty:             d.Faculty.ToMember(),
	}
	if m.Faculty.University == "" {
		m.Faculty.University = m.University
	}
	if m.University == "" {
		m.University = m.Faculty.University
	}
	return m
}

func (s SourcedDraft) toValue() models.SourcedValue {
	return models.SourcedValue{Value: string(s.Value), SourceURL: string(s.SourceURL)}
}

func sourcedSchema(desc string) *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"value":      llm.String(desc),
		"source_url": llm.String("URL of the page the value was read from"),
	}, "value")
}

func facultyMemberProperties() map[string]*llm.Schema {
	return map[string]*llm.Schema{
		"name":              llm.String("full name"),
		"title":             llm.String("e.g. Associate Professor"),
		"university":        llm.String(""),
		"department":        llm.String(""),
		"research_areas":    llm.ArrayOf(llm.String(""), "research areas"),
		"email":             llm.String("official email if published"),
		"profile_url":       llm.String("official faculty page"),
		"lab_url":           llm.String("lab or group website"),
		"recent_activity":   llm.String("recent papers, grants or news, one or two sentences"),
		"recruiting_status": llm.String("whether the faculty member states they are taking students"),
		"location":          llm.String("city and country"),
	}
}

// FacultyMatchesSchema is the response schema for FacultyMatchesDraft.
func FacultyMatchesSchema() *llm.Schema {
	member := facultyMemberProperties()
	member["match_score"] = llm.Integer("fit with the student, 0-100")
	member["match_reason"] = llm.String("why this faculty member fits the student")

	return llm.Object(map[string]*llm.Schema{
		"matches": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"university":           llm.String(""),
			"qs_ranking":           sourcedSchema("latest QS World University Ranking"),
			"us_news_ranking":      sourcedSchema("latest US News Best Global Universities ranking"),
			"application_deadline": sourcedSchema("deadline for the relevant graduate program"),
			"tuition":              sourcedSchema("annual tuition with currency"),
			"faculty":              llm.Object(member, "name", "university"),
		}, "university", "faculty"), "ranked best match first"),
	}, "matches")
}

// BuildFacultySearchPrompt asks for ranked faculty matches. client may be nil.
func BuildFacultySearchPrompt(params models.SearchParams, client *models.Client) string {
	var prompt strings.Builder

	limit := params.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	prompt.WriteString("# Faculty Matching Search\n\n")
	prompt.WriteString(fmt.Sprintf("Find up to %d faculty members who would be strong graduate supervisors for this student.\n\n", limit))

	prompt.WriteString("## Search Parameters\n")
	if len(params.Countries) > 0 {
		prompt.WriteString(fmt.Sprintf("- **Countries**: %s\n", strings.Join(params.Countries, ", ")))
	}
	if params.Field != "" {
		prompt.WriteString(fmt.Sprintf("- **Field**: %s\n", params.Field))
	}
	if len(params.ResearchInterests) > 0 {
		prompt.WriteString(fmt.Sprintf("- **Research interests**: %s\n", strings.Join(params.ResearchInterests, ", ")))
	}
	if params.DegreeLevel != "" {
		prompt.WriteString(fmt.Sprintf("- **Degree level**: %s\n", params.DegreeLevel))
	}
	if params.UniversityTier != "" {
		prompt.WriteString(fmt.Sprintf("- **University tier**: %s\n", params.UniversityTier))
	}
	if len(params.Keywords) > 0 {
		prompt.WriteString(fmt.Sprintf("- **Keywords**: %s\n", strings.Join(params.Keywords, ", ")))
	}
	prompt.WriteString("\n")

	if client != nil {
		prompt.WriteString("# Student Profile\n\n")
		prompt.WriteString(ClientProfile(client))
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Instructions\n")
	prompt.WriteString("- Prefer faculty who are actively publishing and state they are recruiting.\n")
	prompt.WriteString("- Rank by fit with the student's background and interests; match_score is 0-100.\n")
	prompt.WriteString("- For every ranking, deadline and tuition figure give the URL it was read from; leave the value empty if you cannot verify it.\n")
	prompt.WriteString("- Do not list the same person twice.\n")

	return prompt.String()
}

// ============================================================================
// Record refresh
// ============================================================================

// FacultyRefreshSchema is the response schema for a refreshed FacultyMemberDraft.
func FacultyRefreshSchema() *llm.Schema {
	return llm.Object(facultyMemberProperties(), "name", "university")
}

// BuildFacultyRefreshPrompt asks the model to re-check one saved faculty record.
func BuildFacultyRefreshPrompt(rec *models.FacultyRecord) string {
	var prompt strings.Builder

	prompt.WriteString("# Faculty Profile Refresh\n\n")
	prompt.WriteString(fmt.Sprintf("Look up the current public profile of %s at %s", rec.Name, rec.University))
	if rec.Department != "" {
		prompt.WriteString(fmt.Sprintf(" (%s)", rec.Department))
	}
	prompt.WriteString(".\n\n")

	prompt.WriteString("## What We Have On File\n")
	prompt.WriteString(fmt.Sprintf("- **Title**: %s\n", valueOrUnknown(rec.Title)))
	prompt.WriteString(fmt.Sprintf("- **Research areas**: %s\n", valueOrUnknown(strings.Join(rec.ResearchAreas, ", "))))
	prompt.WriteString(fmt.Sprintf("- **Profile**: %s\n", valueOrUnknown(rec.ProfileURL)))
	prompt.WriteString(fmt.Sprintf("- **Recruiting**: %s\n\n", valueOrUnknown(rec.RecruitingStatus)))

	prompt.WriteString("Report the current values. Keep name and university exactly as given. ")
	prompt.WriteString("Leave a field empty if you cannot confirm it; do not repeat stale information.\n")

	return prompt.String()
}

func valueOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}
