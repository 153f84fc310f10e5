package models

// SearchParams are the structured faculty-search parameters, either filled in
// by staff or parsed from free-text requirements.
type SearchParams struct {
	Countries         []string `json:"countries"`
	Field             string   `json:"field"`
	ResearchInterests []string `json:"research_interests,omitempty"`
	DegreeLevel       string   `json:"degree_level,omitempty"` // e.g. "PhD", "Master"
	UniversityTier    string   `json:"university_tier,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	MaxResults        int      `json:"max_results,omitempty"`
	ClientID          string   `json:"client_id,omitempty"` // profile used to rank matches
}

// SourcedValue is a fact returned by a web-grounded search together with the
// URL it was taken from.
type SourcedValue struct {
	Value     string `json:"value"`
	SourceURL string `json:"source_url,omitempty"`
}

// FacultyMatch is one ranked result of a faculty-matching search: the
// candidate plus the admissions facts about their university.
type FacultyMatch struct {
	University          string        `json:"university"`
	QSRanking           SourcedValue  `json:"qs_ranking"`
	USNewsRanking       SourcedValue  `json:"us_news_ranking"`
	ApplicationDeadline SourcedValue  `json:"application_deadline"`
	Tuition             SourcedValue  `json:"tuition"`
	Faculty             FacultyMember `json:"faculty"`
}

// WebSource is a grounding citation returned alongside AI output.
type WebSource struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

// SearchResult is the output of a faculty-matching search.
type SearchResult struct {
	Params  SearchParams   `json:"params"`
	Matches []FacultyMatch `json:"matches"`
	Sources []WebSource    `json:"sources,omitempty"`
}
