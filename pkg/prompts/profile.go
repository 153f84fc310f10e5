// Package prompts builds the prompts and response schemas for every AI workflow.
package prompts

import (
	"fmt"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// writeSection writes a markdown subsection when value is non-empty.
func writeSection(sb *strings.Builder, title, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("### %s\n%s\n\n", title, value))
}

// ClientProfile renders a client as a markdown profile for prompt context.
// Sentinel values for advisor and contact are left out.
func ClientProfile(c *models.Client) string {
	if c == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Student: %s\n\n", c.Name))
	if c.GPA != "" {
		sb.WriteString(fmt.Sprintf("- **GPA**: %s\n", c.GPA))
	}
	if c.Advisor != "" && c.Advisor != models.AdvisorUnassigned {
		sb.WriteString(fmt.Sprintf("- **Advisor**: %s\n", c.Advisor))
	}
	sb.WriteString("\n")

	if len(c.Educations) > 0 {
		sb.WriteString("### Education\n")
		for _, e := range c.Educations {
			sb.WriteString(fmt.Sprintf("- %s", e.School))
			if detail := joinNonEmpty(", ", e.Degree, e.Major); detail != "" {
				sb.WriteString(" (" + detail + ")")
			}
			if e.GPA != "" {
				sb.WriteString(", GPA " + e.GPA)
			}
			if span := dateSpan(e.StartDate, e.EndDate); span != "" {
				sb.WriteString(", " + span)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(c.WorkHistory) > 0 {
		sb.WriteString("### Research and Work Experience\n")
		for _, w := range c.WorkHistory {
			sb.WriteString(fmt.Sprintf("- %s", joinNonEmpty(", ", w.Role, w.Organization)))
			if span := dateSpan(w.StartDate, w.EndDate); span != "" {
				sb.WriteString(" (" + span + ")")
			}
			if w.Description != "" {
				sb.WriteString(": " + w.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(c.Awards) > 0 {
		sb.WriteString("### Awards\n")
		for _, a := range c.Awards {
			sb.WriteString(fmt.Sprintf("- %s", joinNonEmpty(", ", a.Title, a.Issuer, a.Date)))
			if a.Description != "" {
				sb.WriteString(": " + a.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeSection(&sb, "Academic Achievements", c.AcademicAchievements)
	writeSection(&sb, "Extracurricular Activities", c.Extracurriculars)
	writeSection(&sb, "Interests", c.Interests)
	writeSection(&sb, "Career Aspirations", c.CareerAspirations)
	writeSection(&sb, "Formative Experiences", c.Experiences)
	writeSection(&sb, "Challenges Overcome", c.Challenges)
	writeSection(&sb, "Skills", c.Skills)
	writeSection(&sb, "Personal Growth", c.Growth)
	writeSection(&sb, "Consultant Notes", c.AdditionalNotes)

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func dateSpan(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " to " + end
	case start != "":
		return start + " to present"
	default:
		return end
	}
}
