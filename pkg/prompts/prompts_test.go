package prompts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

func sampleClient() *models.Client {
	return &models.Client{
		ID:        "c1",
		Name:      "周宇",
		Advisor:   models.AdvisorUnassigned,
		GPA:       "3.8/4.0",
		Interests: "Machine learning for healthcare",
		Educations: []models.Education{
			{ID: "e1", School: "Zhejiang University", Degree: "B.Eng.", Major: "Computer Science", StartDate: "2021-09"},
		},
		WorkHistory: []models.WorkEntry{
			{ID: "w1", Organization: "Alibaba DAMO", Role: "Research Intern", Description: "Medical image segmentation"},
		},
	}
}

func TestClientProfile(t *testing.T) {
	p := ClientProfile(sampleClient())

	assert.Contains(t, p, "## Student: 周宇")
	assert.Contains(t, p, "- **GPA**: 3.8/4.0")
	assert.NotContains(t, p, "Advisor", "unassigned sentinel should be hidden")
	assert.Contains(t, p, "- Zhejiang University (B.Eng., Computer Science), 2021-09 to present")
	assert.Contains(t, p, "- Research Intern, Alibaba DAMO: Medical image segmentation")
	assert.Contains(t, p, "### Interests\nMachine learning for healthcare")
	assert.NotContains(t, p, "### Skills")

	assert.Empty(t, ClientProfile(nil))
}

func TestClientDraft_ToInput(t *testing.T) {
	raw := `{
		"name": " Li Na ",
		"gpa": 3.6,
		"educations": [{"school": "Fudan"}, {"school": "", "degree": "orphan"}],
		"work_history": [{"organization": "Tencent", "role": "Intern"}],
		"awards": [{"title": "National Scholarship", "date": 2023}]
	}`

	var draft ClientDraft
	require.NoError(t, json.Unmarshal([]byte(raw), &draft))

	in := draft.ToInput()
	assert.Equal(t, "Li Na", in.Name)
	assert.Equal(t, "3.6", in.GPA)
	require.Len(t, in.Educations, 1)
	assert.Equal(t, "Fudan", in.Educations[0].School)
	require.Len(t, in.WorkHistory, 1)
	assert.Equal(t, "Intern", in.WorkHistory[0].Role)
	require.Len(t, in.Awards, 1)
	assert.Equal(t, "2023", in.Awards[0].Date)
}

func TestClientDraftSchema_RequiresName(t *testing.T) {
	s := ClientDraftSchema()
	assert.Equal(t, []string{"name"}, s.Required)
	assert.Contains(t, s.Properties, "educations")
	assert.Contains(t, s.Properties, "work_history")
}

func TestBuildImportPrompt(t *testing.T) {
	withText := BuildImportPrompt("resume.pdf", "GPA 3.9")
	assert.Contains(t, withText, `"resume.pdf"`)
	assert.Contains(t, withText, "## Document Text\n\nGPA 3.9")

	attached := BuildImportPrompt("scan.png", "  ")
	assert.Contains(t, attached, "The document is attached.")
	assert.NotContains(t, attached, "## Document Text")
}

func TestSearchParamsDraft_ToParams(t *testing.T) {
	raw := `{"countries": "USA, UK", "field": "Computer Science", "keywords": ["", "robotics"], "max_results": "8"}`

	var draft SearchParamsDraft
	require.NoError(t, json.Unmarshal([]byte(raw), &draft))

	p := draft.ToParams("c1")
	assert.Equal(t, []string{"USA", "UK"}, p.Countries)
	assert.Equal(t, "Computer Science", p.Field)
	assert.Equal(t, []string{"robotics"}, p.Keywords)
	assert.Equal(t, 8, p.MaxResults)
	assert.Equal(t, "c1", p.ClientID)
}

func TestFacultyMatchDraft_ToMatch(t *testing.T) {
	raw := `{
		"university": "MIT",
		"qs_ranking": {"value": 1, "source_url": "https://www.topuniversities.com"},
		"faculty": {"name": "Alice", "research_areas": "NLP; vision", "match_score": "140"}
	}`

	var draft FacultyMatchDraft
	require.NoError(t, json.Unmarshal([]byte(raw), &draft))

	m := draft.ToMatch()
	assert.Equal(t, "MIT", m.University)
	assert.Equal(t, "1", m.QSRanking.Value)
	assert.Equal(t, "https://www.topuniversities.com", m.QSRanking.SourceURL)
	assert.Equal(t, "MIT", m.Faculty.University, "faculty inherits the match university")
	assert.Equal(t, []string{"NLP", "vision"}, m.Faculty.ResearchAreas)
	assert.Equal(t, 100, m.Faculty.MatchScore)
}

func TestBuildFacultySearchPrompt(t *testing.T) {
	params := models.SearchParams{
		Countries:         []string{"USA", "Canada"},
		Field:             "Biomedical Engineering",
		ResearchInterests: []string{"medical imaging"},
	}

	p := BuildFacultySearchPrompt(params, sampleClient())
	assert.Contains(t, p, "Find up to 10 faculty members")
	assert.Contains(t, p, "- **Countries**: USA, Canada")
	assert.Contains(t, p, "- **Research interests**: medical imaging")
	assert.NotContains(t, p, "**Keywords**")
	assert.Contains(t, p, "# Student Profile")

	params.MaxResults = 3
	noClient := BuildFacultySearchPrompt(params, nil)
	assert.Contains(t, noClient, "Find up to 3 faculty members")
	assert.NotContains(t, noClient, "# Student Profile")
}

func TestFacultyMatchesSchema(t *testing.T) {
	s := FacultyMatchesSchema()
	matches := s.Properties["matches"]
	require.NotNil(t, matches)
	require.NotNil(t, matches.Items)

	faculty := matches.Items.Properties["faculty"]
	require.NotNil(t, faculty)
	assert.Contains(t, faculty.Properties, "match_score")

	refresh := FacultyRefreshSchema()
	assert.NotContains(t, refresh.Properties, "match_score")
}

func TestBuildFacultyRefreshPrompt(t *testing.T) {
	rec := &models.FacultyRecord{FacultyMember: models.FacultyMember{
		Name:       "Alice",
		University: "MIT",
		Title:      "Assistant Professor",
	}}

	p := BuildFacultyRefreshPrompt(rec)
	assert.Contains(t, p, "Alice at MIT.")
	assert.Contains(t, p, "- **Title**: Assistant Professor")
	assert.Contains(t, p, "- **Profile**: unknown")
}

func TestBuildDocumentPrompt(t *testing.T) {
	client := sampleClient()

	tests := []struct {
		name     string
		docType  models.DocumentType
		opts     DocumentOptions
		contains []string
		absent   []string
	}{
		{
			name:     "outline default limit",
			docType:  models.DocumentTypePSOutline,
			contains: []string{"# Draft: Personal Statement Outline", "Stay within 400 words", "Write in English"},
		},
		{
			name:     "statement follows outline",
			docType:  models.DocumentTypePersonalStatement,
			opts:     DocumentOptions{Outline: "1. Hook", WordLimit: 800, Language: "Chinese"},
			contains: []string{"## Approved Outline\n\n1. Hook", "Stay within 800 words", "Write in Chinese"},
		},
		{
			name:     "essay topic",
			docType:  models.DocumentTypeEssay,
			opts:     DocumentOptions{EssayTopic: "Why this program?"},
			contains: []string{"## Topic\n\nWhy this program?"},
		},
		{
			name:     "recommendation letter",
			docType:  models.DocumentTypeRecommendation,
			opts:     DocumentOptions{Recommender: "Prof. Wang, advisor"},
			contains: []string{"- **Name and role**: Prof. Wang, advisor", "- **Relationship**: unknown"},
		},
		{
			name:     "cv has no word limit",
			docType:  models.DocumentTypeCV,
			opts:     DocumentOptions{TargetProgram: "MS CS, Stanford", ExtraInstructions: "Keep it to one page."},
			contains: []string{"**Target program**: MS CS, Stanford", "- Keep it to one page."},
			absent:   []string{"Stay within"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildDocumentPrompt(tt.docType, client, tt.opts)
			assert.Contains(t, p, "## Student: 周宇")
			for _, s := range tt.contains {
				assert.Contains(t, p, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, p, s)
			}
		})
	}
}

func TestBuildAssistantPrompt(t *testing.T) {
	history := make([]models.ChatMessage, 0, 30)
	for i := 0; i < 30; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, models.ChatMessage{Role: role, Content: "turn"})
	}

	p := BuildAssistantPrompt(sampleClient(), history, " What schools fit? ")
	assert.Contains(t, p, "# Student In Context")
	assert.Equal(t, maxHistoryTurns, strings.Count(p, ": turn"))
	assert.True(t, strings.HasSuffix(p, "# Question\n\nWhat schools fit?\n"))

	bare := BuildAssistantPrompt(nil, nil, "hi")
	assert.Equal(t, "# Question\n\nhi\n", bare)
}
