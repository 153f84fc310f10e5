package services

import (
	"bufio"
	"io"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// utf8BOM makes spreadsheet apps detect UTF-8, so Chinese text opens correctly.
const utf8BOM = "\uFEFF"

// FacultyCSVHeader is the fixed column layout of faculty exports.
var FacultyCSVHeader = []string{
	"University",
	"QS Ranking",
	"QS Ranking Source",
	"US News Ranking",
	"US News Ranking Source",
	"Application Deadline",
	"Application Deadline Source",
	"Tuition",
	"Tuition Source",
	"Faculty Name",
	"Title",
	"Department",
	"Research Areas",
	"Email",
	"Profile URL",
	"Recruiting Status",
	"Match Reason",
}

// WriteFacultyMatchesCSV writes matches as a BOM-prefixed CSV with every
// cell quoted.
func WriteFacultyMatchesCSV(w io.Writer, matches []models.FacultyMatch) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}
	if err := writeQuotedRow(bw, FacultyCSVHeader); err != nil {
		return err
	}
	for _, m := range matches {
		if err := writeQuotedRow(bw, matchRow(m)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFacultyRecordsCSV exports saved records in the same layout. Records
// carry no ranking, deadline or tuition data, so those cells are empty.
func WriteFacultyRecordsCSV(w io.Writer, records []*models.FacultyRecord) error {
	matches := make([]models.FacultyMatch, 0, len(records))
	for _, r := range records {
		matches = append(matches, models.FacultyMatch{
			University: r.University,
			Faculty:    r.FacultyMember,
		})
	}
	return WriteFacultyMatchesCSV(w, matches)
}

func matchRow(m models.FacultyMatch) []string {
	university := m.University
	if university == "" {
		university = m.Faculty.University
	}
	return []string{
		university,
		m.QSRanking.Value,
		m.QSRanking.SourceURL,
		m.USNewsRanking.Value,
		m.USNewsRanking.SourceURL,
		m.ApplicationDeadline.Value,
		m.ApplicationDeadline.SourceURL,
		m.Tuition.Value,
		m.Tuition.SourceURL,
		m.Faculty.Name,
		m.Faculty.Title,
		m.Faculty.Department,
		strings.Join(m.Faculty.ResearchAreas, "; "),
		m.Faculty.Email,
		m.Faculty.ProfileURL,
		m.Faculty.RecruitingStatus,
		m.Faculty.MatchReason,
	}
}

// writeQuotedRow writes one CSV line with every cell double-quoted and
// embedded quotes doubled. encoding/csv only quotes cells that need it.
func writeQuotedRow(w *bufio.Writer, cells []string) error {
	for i, c := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(c, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}
