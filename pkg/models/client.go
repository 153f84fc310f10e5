// Package models contains domain types for gradpath-engine.
package models

import (
	"slices"
	"time"
)

// ClientStatus drives which list view a client appears in.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusArchived ClientStatus = "archived"
)

// IsValid returns true if the status is a known client status.
func (s ClientStatus) IsValid() bool {
	return s == ClientStatusActive || s == ClientStatusArchived
}

// Sentinel values assigned at creation when the caller leaves the field empty.
const (
	AdvisorUnassigned = "unassigned"
	ContactNone       = "none"
)

// Client is one student served by the agency.
type Client struct {
	ID      string       `json:"id"`
	Status  ClientStatus `json:"status"`
	Name    string       `json:"name"`
	Advisor string       `json:"advisor"`
	GPA     string       `json:"gpa,omitempty"`
	Contact string       `json:"contact"`

	// Narrative profile sections. Opaque free text.
	AcademicAchievements string `json:"academic_achievements,omitempty"`
	Extracurriculars     string `json:"extracurriculars,omitempty"`
	Interests            string `json:"interests,omitempty"`
	CareerAspirations    string `json:"career_aspirations,omitempty"`
	Experiences          string `json:"experiences,omitempty"`
	Challenges           string `json:"challenges,omitempty"`
	Skills               string `json:"skills,omitempty"`
	Growth               string `json:"growth,omitempty"`
	AdditionalNotes      string `json:"additional_notes,omitempty"`

	Educations  []Education     `json:"educations"`
	WorkHistory []WorkEntry     `json:"work_history"`
	Awards      []Award         `json:"awards"`
	Contacts    []ContactRecord `json:"contacts"`
	Documents   []Document      `json:"documents"`

	// DocumentCount always equals len(Documents) after a document mutation.
	DocumentCount int `json:"document_count"`

	LinkedFacultyIDs []string `json:"linked_faculty_ids"`

	// SourceFileKey is the archive key of the file this client was imported from.
	SourceFileKey string `json:"source_file_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Education is one entry of a client's education history.
type Education struct {
	ID        string `json:"id"`
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	Major     string `json:"major,omitempty"`
	GPA       string `json:"gpa,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// WorkEntry is one internship, job or research position.
type WorkEntry struct {
	ID           string `json:"id"`
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Award is an honor, scholarship or competition result.
type Award struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Issuer      string `json:"issuer,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactRecord logs one communication with the client or their family.
type ContactRecord struct {
	ID      string `json:"id"`
	Date    string `json:"date,omitempty"`
	Channel string `json:"channel,omitempty"`
	Notes   string `json:"notes"`
}

// SubRecordKind names one of the client's ordered sub-collections.
type SubRecordKind string

const (
	SubRecordEducation SubRecordKind = "educations"
	SubRecordWork      SubRecordKind = "work"
	SubRecordAward     SubRecordKind = "awards"
	SubRecordContact   SubRecordKind = "contacts"
)

// IsValid returns true if the kind names a known sub-collection.
func (k SubRecordKind) IsValid() bool {
	switch k {
	case SubRecordEducation, SubRecordWork, SubRecordAward, SubRecordContact:
		return true
	default:
		return false
	}
}

// NewClientInput carries the fields a caller may supply when creating a client.
// Name is required; everything else is optional.
type NewClientInput struct {
	Name    string `json:"name"`
	Advisor string `json:"advisor,omitempty"`
	GPA     string `json:"gpa,omitempty"`
	Contact string `json:"contact,omitempty"`

	AcademicAchievements string `json:"academic_achievements,omitempty"`
	Extracurriculars     string `json:"extracurriculars,omitempty"`
	Interests            string `json:"interests,omitempty"`
	CareerAspirations    string `json:"career_aspirations,omitempty"`
	Experiences          string `json:"experiences,omitempty"`
	Challenges           string `json:"challenges,omitempty"`
	Skills               string `json:"skills,omitempty"`
	Growth               string `json:"growth,omitempty"`
	AdditionalNotes      string `json:"additional_notes,omitempty"`

	Educations  []Education     `json:"educations,omitempty"`
	WorkHistory []WorkEntry     `json:"work_history,omitempty"`
	Awards      []Award         `json:"awards,omitempty"`
	Contacts    []ContactRecord `json:"contacts,omitempty"`

	SourceFileKey string `json:"source_file_key,omitempty"`
}

// ClientPatch is a partial update of a client's scalar fields.
// Nil fields are left unchanged. Collections, identity and links are not patchable.
type ClientPatch struct {
	Name    *string       `json:"name,omitempty"`
	Status  *ClientStatus `json:"status,omitempty"`
	Advisor *string       `json:"advisor,omitempty"`
	GPA     *string       `json:"gpa,omitempty"`
	Contact *string       `json:"contact,omitempty"`

	AcademicAchievements *string `json:"academic_achievements,omitempty"`
	Extracurriculars     *string `json:"extracurriculars,omitempty"`
	Interests            *string `json:"interests,omitempty"`
	CareerAspirations    *string `json:"career_aspirations,omitempty"`
	Experiences          *string `json:"experiences,omitempty"`
	Challenges           *string `json:"challenges,omitempty"`
	Skills               *string `json:"skills,omitempty"`
	Growth               *string `json:"growth,omitempty"`
	AdditionalNotes      *string `json:"additional_notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *ClientPatch) IsEmpty() bool {
	return p == nil || *p == ClientPatch{}
}

// Apply merges the patch onto c. It does not touch timestamps.
func (p *ClientPatch) Apply(c *Client) {
	if p == nil {
		return
	}
	setString(&c.Name, p.Name)
	if p.Status != nil {
		c.Status = *p.Status
	}
	setString(&c.Advisor, p.Advisor)
	setString(&c.GPA, p.GPA)
	setString(&c.Contact, p.Contact)
	setString(&c.AcademicAchievements, p.AcademicAchievements)
	setString(&c.Extracurriculars, p.Extracurriculars)
	setString(&c.Interests, p.Interests)
	setString(&c.CareerAspirations, p.CareerAspirations)
	setString(&c.Experiences, p.Experiences)
	setString(&c.Challenges, p.Challenges)
	setString(&c.Skills, p.Skills)
	setString(&c.Growth, p.Growth)
	setString(&c.AdditionalNotes, p.AdditionalNotes)
}

// Clone returns a deep copy of the client.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Educations = slices.Clone(c.Educations)
	out.WorkHistory = slices.Clone(c.WorkHistory)
	out.Awards = slices.Clone(c.Awards)
	out.Contacts = slices.Clone(c.Contacts)
	out.Documents = slices.Clone(c.Documents)
	out.LinkedFacultyIDs = slices.Clone(c.LinkedFacultyIDs)
	return &out
}

// HasLinkedFaculty reports whether facultyID is in the client's linked set.
func (c *Client) HasLinkedFaculty(facultyID string) bool {
	return slices.Contains(c.LinkedFacultyIDs, facultyID)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
