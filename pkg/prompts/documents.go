package prompts

import (
	"fmt"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// DocumentSystemMessage frames every drafting call.
const DocumentSystemMessage = "You are an experienced graduate admissions writing consultant. " +
	"You draft application documents that are specific, honest and grounded in the student's actual record. " +
	"Never invent achievements, grades or experiences."

// DocumentOptions carries the per-request details of a drafting call.
type DocumentOptions struct {
	TargetProgram     string `json:"target_program,omitempty"`     // e.g. "MS in Computer Science, Stanford"
	EssayTopic        string `json:"essay_topic,omitempty"`        // essay prompt or theme
	Recommender       string `json:"recommender,omitempty"`        // name and role of the letter writer
	Relationship      string `json:"relationship,omitempty"`       // how the recommender knows the student
	WordLimit         int    `json:"word_limit,omitempty"`         // 0 means a sensible default
	Language          string `json:"language,omitempty"`           // output language, default English
	Outline           string `json:"outline,omitempty"`            // approved outline to expand
	ExtraInstructions string `json:"extra_instructions,omitempty"` // free-form consultant notes
}

// defaultWordLimit is used when the caller sets none.
func defaultWordLimit(t models.DocumentType) int {
	switch t {
	case models.DocumentTypePSOutline:
		return 400
	case models.DocumentTypeEssay:
		return 650
	case models.DocumentTypeRecommendation:
		return 600
	case models.DocumentTypeCV:
		return 0
	default:
		return 1000
	}
}

// BuildDocumentPrompt renders the drafting prompt for docType. The caller
// must check docType.IsGeneratable first.
func BuildDocumentPrompt(docType models.DocumentType, client *models.Client, opts DocumentOptions) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("# Draft: %s\n\n", docType.Label()))

	switch docType {
	case models.DocumentTypePSOutline:
		prompt.WriteString("Write a structured outline for the student's personal statement. ")
		prompt.WriteString("Give a one-line thesis, then 4-6 sections, each with a heading, the experience it draws on and the point it makes. ")
		prompt.WriteString("Close with how the target program fits the student's goals.\n\n")
	case models.DocumentTypePersonalStatement:
		prompt.WriteString("Write the full personal statement in first person. ")
		prompt.WriteString("Open with a concrete moment, connect research and work experience to the student's motivation, ")
		prompt.WriteString("and end with specific goals for graduate study.\n\n")
		if strings.TrimSpace(opts.Outline) != "" {
			prompt.WriteString("## Approved Outline\n\n")
			prompt.WriteString(opts.Outline)
			prompt.WriteString("\n\nFollow this outline section by section.\n\n")
		}
	case models.DocumentTypeEssay:
		prompt.WriteString("Write an application essay in first person that answers the topic below directly.\n\n")
		prompt.WriteString("## Topic\n\n")
		if opts.EssayTopic != "" {
			prompt.WriteString(opts.EssayTopic)
		} else {
			prompt.WriteString("Describe an experience that shaped your academic direction.")
		}
		prompt.WriteString("\n\n")
	case models.DocumentTypeRecommendation:
		prompt.WriteString("Write a letter of recommendation for the student, in the recommender's voice. ")
		prompt.WriteString("Cite two or three concrete observations and compare the student to peers where the record supports it.\n\n")
		prompt.WriteString("## Recommender\n")
		prompt.WriteString(fmt.Sprintf("- **Name and role**: %s\n", valueOrUnknown(opts.Recommender)))
		prompt.WriteString(fmt.Sprintf("- **Relationship**: %s\n\n", valueOrUnknown(opts.Relationship)))
	case models.DocumentTypeCV:
		prompt.WriteString("Produce an academic CV in markdown with sections for Education, Research Experience, ")
		prompt.WriteString("Work Experience, Awards, Skills and Activities. Use reverse chronological order and omit empty sections.\n\n")
	}

	if opts.TargetProgram != "" {
		prompt.WriteString(fmt.Sprintf("**Target program**: %s\n\n", opts.TargetProgram))
	}

	prompt.WriteString("# Student Profile\n\n")
	prompt.WriteString(ClientProfile(client))
	prompt.WriteString("\n")

	prompt.WriteString("## Requirements\n")
	limit := opts.WordLimit
	if limit <= 0 {
		limit = defaultWordLimit(docType)
	}
	if limit > 0 {
		prompt.WriteString(fmt.Sprintf("- Stay within %d words.\n", limit))
	}
	lang := opts.Language
	if lang == "" {
		lang = "English"
	}
	prompt.WriteString(fmt.Sprintf("- Write in %s.\n", lang))
	prompt.WriteString("- Return only the document text, no preamble or commentary.\n")
	if strings.TrimSpace(opts.ExtraInstructions) != "" {
		prompt.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(opts.ExtraInstructions)))
	}

	return prompt.String()
}

// DocumentTemperature is higher for narrative documents than for the CV.
func DocumentTemperature(t models.DocumentType) float64 {
	if t == models.DocumentTypeCV || t == models.DocumentTypePSOutline {
		return 0.3
	}
	return 0.7
}
