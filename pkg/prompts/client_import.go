package prompts

import (
	"fmt"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/jsonutil"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

// ImportSystemMessage frames the resume/transcript parsing call.
const ImportSystemMessage = "You are an assistant at a study-abroad consulting agency. " +
	"You read student resumes, transcripts and intake forms and extract their contents into a structured profile. " +
	"Never invent facts that are not in the document."

// ClientDraft is the profile the model extracts from an imported file.
type ClientDraft struct {
	Name                 jsonutil.String `json:"name"`
	GPA                  jsonutil.String `json:"gpa"`
	Contact              jsonutil.String `json:"contact"`
	AcademicAchievements jsonutil.String `json:"academic_achievements"`
	Extracurriculars     jsonutil.String `json:"extracurriculars"`
	Interests            jsonutil.String `json:"interests"`
	CareerAspirations    jsonutil.String `json:"career_aspirations"`
	Experiences          jsonutil.String `json:"experiences"`
	Challenges           jsonutil.String `json:"challenges"`
	Skills               jsonutil.String `json:"skills"`
	Growth               jsonutil.String `json:"growth"`
	AdditionalNotes      jsonutil.String `json:"additional_notes"`

	Educations []struct {
		School    jsonutil.String `json:"school"`
		Degree    jsonutil.String `json:"degree"`
		Major     jsonutil.String `json:"major"`
		GPA       jsonutil.String `json:"gpa"`
		StartDate jsonutil.String `json:"start_date"`
		EndDate   jsonutil.String `json:"end_date"`
	} `json:"educations"`

	WorkHistory []struct {
		Organization jsonutil.String `json:"organization"`
		Role         jsonutil.String `json:"role"`
		StartDate    jsonutil.String `json:"start_date"`
		EndDate      jsonutil.String `json:"end_date"`
		Description  jsonutil.String `json:"description"`
	} `json:"work_history"`

	Awards []struct {
		Title       jsonutil.String `json:"title"`
		Issuer      jsonutil.String `json:"issuer"`
		Date        jsonutil.String `json:"date"`
		Description jsonutil.String `json:"description"`
	} `json:"awards"`
}

// ClientDraftSchema is the response schema for ClientDraft.
func ClientDraftSchema() *llm.Schema {
	text := func(desc string) *llm.Schema { return llm.String(desc) }

	return llm.Object(map[string]*llm.Schema{
		"name":                  text("student's full name as written in the document"),
		"gpa":                   text("overall GPA with its scale, e.g. 3.7/4.0"),
		"contact":               text("email or phone number"),
		"academic_achievements": text("publications, research output, notable coursework"),
		"extracurriculars":      text("clubs, volunteering, leadership"),
		"interests":             text("academic and personal interests"),
		"career_aspirations":    text("stated career goals"),
		"experiences":           text("formative experiences"),
		"challenges":            text("obstacles the student has overcome"),
		"skills":                text("technical and language skills, test scores"),
		"growth":                text("evidence of personal growth"),
		"additional_notes":      text("anything relevant that fits nowhere else"),
		"educations": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"school":     text(""),
			"degree":     text("e.g. B.Sc., M.Eng."),
			"major":      text(""),
			"gpa":        text(""),
			"start_date": text("YYYY-MM or YYYY"),
			"end_date":   text("YYYY-MM, YYYY or empty if ongoing"),
		}, "school"), "education history, most recent first"),
		"work_history": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"organization": text(""),
			"role":         text(""),
			"start_date":   text(""),
			"end_date":     text(""),
			"description":  text("one or two sentences"),
		}, "organization"), "internships, jobs and research positions"),
		"awards": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"title":       text(""),
			"issuer":      text(""),
			"date":        text(""),
			"description": text(""),
		}, "title"), "honors, scholarships and competition results"),
	}, "name")
}

// BuildImportPrompt asks the model to extract a profile. text is the locally
// extracted document text; it is empty when the file itself is attached.
func BuildImportPrompt(filename, text string) string {
	var prompt strings.Builder

	prompt.WriteString("# Student Document Import\n\n")
	prompt.WriteString(fmt.Sprintf("Extract a student profile from the file \"%s\".\n\n", filename))
	prompt.WriteString("## Rules\n")
	prompt.WriteString("- Leave a field empty when the document does not mention it.\n")
	prompt.WriteString("- Keep the document's language for free-text fields (Chinese stays Chinese).\n")
	prompt.WriteString("- Summarize narrative sections in full sentences; do not copy bullet fragments.\n")
	prompt.WriteString("- Dates use YYYY-MM where the month is known.\n\n")

	if strings.TrimSpace(text) != "" {
		prompt.WriteString("## Document Text\n\n")
		prompt.WriteString(text)
		prompt.WriteString("\n")
	} else {
		prompt.WriteString("The document is attached.\n")
	}

	return prompt.String()
}

// ToInput converts the draft into a client creation payload. Sub-record ids
// are assigned by the repository. Entries without their key field are dropped.
func (d *ClientDraft) ToInput() *models.NewClientInput {
	in := &models.NewClientInput{
		Name:                 string(d.Name),
		GPA:                  string(d.GPA),
		Contact:              string(d.Contact),
		AcademicAchievements: string(d.AcademicAchievements),
		Extracurriculars:     string(d.Extracurriculars),
		Interests:            string(d.Interests),
		CareerAspirations:    string(d.CareerAspirations),
		Experiences:          string(d.Experiences),
		Challenges:           string(d.Challenges),
		Skills:               string(d.Skills),
		Growth:               string(d.Growth),
		AdditionalNotes:      string(d.AdditionalNotes),
	}
	for _, e := range d.Educations {
		if e.School == "" {
			continue
		}
		in.Educations = append(in.Educations, models.Education{
			School:    string(e.School),
			Degree:    string(e.Degree),
			Major:     string(e.Major),
			GPA:       string(e.GPA),
			StartDate: string(e.StartDate),
			EndDate:   string(e.EndDate),
		})
	}
	for _, w := range d.WorkHistory {
		if w.Organization == "" {
			continue
		}
		in.WorkHistory = append(in.WorkHistory, models.WorkEntry{
			Organization: string(w.Organization),
			Role:         string(w.Role),
			StartDate:    string(w.StartDate),
			EndDate:      string(w.EndDate),
			Description:  string(w.Description),
		})
	}
	for _, a := range d.Awards {
		if a.Title == "" {
			continue
		}
		in.Awards = append(in.Awards, models.Award{
			Title:       string(a.Title),
			Issuer:      string(a.Issuer),
			Date:        string(a.Date),
			Description: string(a.Description),
		})
	}
	return in
}
