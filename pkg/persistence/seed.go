package persistence

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Clients []seedClient `yaml:"clients"`
}

type seedClient struct {
	Name                 string `yaml:"name"`
	Advisor              string `yaml:"advisor"`
	GPA                  string `yaml:"gpa"`
	Contact              string `yaml:"contact"`
	AcademicAchievements string `yaml:"academic_achievements"`
	Extracurriculars     string `yaml:"extracurriculars"`
	Interests            string `yaml:"interests"`
	CareerAspirations    string `yaml:"career_aspirations"`
	Experiences          string `yaml:"experiences"`
	Challenges           string `yaml:"challenges"`
	Skills               string `yaml:"skills"`
	Growth               string `yaml:"growth"`
	AdditionalNotes      string `yaml:"additional_notes"`

	Educations []struct {
		School    string `yaml:"school"`
		Degree    string `yaml:"degree"`
		Major     string `yaml:"major"`
		GPA       string `yaml:"gpa"`
		StartDate string `yaml:"start_date"`
		EndDate   string `yaml:"end_date"`
	} `yaml:"educations"`
	WorkHistory []struct {
		Organization string `yaml:"organization"`
		Role         string `yaml:"role"`
		StartDate    string `yaml:"start_date"`
		EndDate      string `yaml:"end_date"`
		Description  string `yaml:"description"`
	} `yaml:"work_history"`
	Awards []struct {
		Title       string `yaml:"title"`
		Issuer      string `yaml:"issuer"`
		Date        string `yaml:"date"`
		Description string `yaml:"description"`
	} `yaml:"awards"`
}

// SeedClients returns the sample clients with fresh ids and timestamps.
func SeedClients(now time.Time) ([]*models.Client, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing seed clients: %w", err)
	}

	clients := make([]*models.Client, 0, len(f.Clients))
	for _, s := range f.Clients {
		c := &models.Client{
			ID:                   uuid.NewString(),
			Status:               models.ClientStatusActive,
			Name:                 s.Name,
			Advisor:              s.Advisor,
			GPA:                  s.GPA,
			Contact:              s.Contact,
			AcademicAchievements: s.AcademicAchievements,
			Extracurriculars:     s.Extracurriculars,
			Interests:            s.Interests,
			CareerAspirations:    s.CareerAspirations,
			Experiences:          s.Experiences,
			Challenges:           s.Challenges,
			Skills:               s.Skills,
			Growth:               s.Growth,
			AdditionalNotes:      s.AdditionalNotes,
			Educations:           []models.Education{},
			WorkHistory:          []models.WorkEntry{},
			Awards:               []models.Award{},
			Contacts:             []models.ContactRecord{},
			Documents:            []models.Document{},
			LinkedFacultyIDs:     []string{},
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if c.Advisor == "" {
			c.Advisor = models.AdvisorUnassigned
		}
		if c.Contact == "" {
			c.Contact = models.ContactNone
		}
		for _, e := range s.Educations {
			c.Educations = append(c.Educations, models.Education{
				ID: uuid.NewString(), School: e.School, Degree: e.Degree, Major: e.Major,
				GPA: e.GPA, StartDate: e.StartDate, EndDate: e.EndDate,
			})
		}
		for _, w := range s.WorkHistory {
			c.WorkHistory = append(c.WorkHistory, models.WorkEntry{
				ID: uuid.NewString(), Organization: w.Organization, Role: w.Role,
				StartDate: w.StartDate, EndDate: w.EndDate, Description: w.Description,
			})
		}
		for _, a := range s.Awards {
			c.Awards = append(c.Awards, models.Award{
				ID: uuid.NewString(), Title: a.Title, Issuer: a.Issuer,
				Date: a.Date, Description: a.Description,
			})
		}
		clients = append(clients, c)
	}
	return clients, nil
}
