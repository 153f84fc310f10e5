package models

import (
	"slices"
	"strings"
	"time"
)

// FacultyMember is an ephemeral faculty candidate returned by a search.
// It becomes a FacultyRecord once saved to the shared database.
type FacultyMember struct {
	Name             string   `json:"name"`
	Title            string   `json:"title,omitempty"`
	University       string   `json:"university"`
	Department       string   `json:"department,omitempty"`
	ResearchAreas    []string `json:"research_areas,omitempty"`
	Email            string   `json:"email,omitempty"`
	ProfileURL       string   `json:"profile_url,omitempty"`
	LabURL           string   `json:"lab_url,omitempty"`
	RecentActivity   string   `json:"recent_activity,omitempty"`
	RecruitingStatus string   `json:"recruiting_status,omitempty"`
	Location         string   `json:"location,omitempty"`
	MatchScore       int      `json:"match_score,omitempty"`
	MatchReason      string   `json:"match_reason,omitempty"`
}

// DedupKey returns the case-insensitive (name, university) key.
func (m FacultyMember) DedupKey() DedupKey {
	return NewDedupKey(m.Name, m.University)
}

// DedupKey identifies a faculty member across searches.
type DedupKey struct {
	Name       string
	University string
}

// NewDedupKey normalizes name and university for comparison.
func NewDedupKey(name, university string) DedupKey {
	return DedupKey{
		Name:       strings.ToLower(strings.TrimSpace(name)),
		University: strings.ToLower(strings.TrimSpace(university)),
	}
}

// FacultyRecord is a persisted, deduplicated entry in the shared faculty database.
type FacultyRecord struct {
	ID string `json:"id"`
	FacultyMember

	Country       string        `json:"country,omitempty"`
	FieldCategory string        `json:"field_category,omitempty"`
	Source        FacultySource `json:"source"`
	Notes         string        `json:"notes,omitempty"`

	LinkedClientIDs []string `json:"linked_client_ids"`

	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (f *FacultyRecord) Clone() *FacultyRecord {
	if f == nil {
		return nil
	}
	out := *f
	out.ResearchAreas = slices.Clone(f.ResearchAreas)
	out.LinkedClientIDs = slices.Clone(f.LinkedClientIDs)
	return &out
}

// HasLinkedClient reports whether clientID is in the record's linked set.
func (f *FacultyRecord) HasLinkedClient(clientID string) bool {
	return slices.Contains(f.LinkedClientIDs, clientID)
}

// FacultyRecordInput is the manual entry form payload.
type FacultyRecordInput struct {
	FacultyMember
	Country       string `json:"country,omitempty"`
	FieldCategory string `json:"field_category,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// FacultyPatch is a partial update of a faculty record.
// Nil fields are left unchanged. Identity, links and timestamps are not patchable.
type FacultyPatch struct {
	Name             *string   `json:"name,omitempty"`
	Title            *string   `json:"title,omitempty"`
	University       *string   `json:"university,omitempty"`
	Department       *string   `json:"department,omitempty"`
	ResearchAreas    *[]string `json:"research_areas,omitempty"`
	Email            *string   `json:"email,omitempty"`
	ProfileURL       *string   `json:"profile_url,omitempty"`
	LabURL           *string   `json:"lab_url,omitempty"`
	RecentActivity   *string   `json:"recent_activity,omitempty"`
	RecruitingStatus *string   `json:"recruiting_status,omitempty"`
	Location         *string   `json:"location,omitempty"`
	Country          *string   `json:"country,omitempty"`
	FieldCategory    *string   `json:"field_category,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
}

// Apply merges the patch onto f. It does not touch timestamps.
func (p *FacultyPatch) Apply(f *FacultyRecord) {
	if p == nil {
		return
	}
	setString(&f.Name, p.Name)
	setString(&f.Title, p.Title)
	setString(&f.University, p.University)
	setString(&f.Department, p.Department)
	if p.ResearchAreas != nil {
		f.ResearchAreas = slices.Clone(*p.ResearchAreas)
	}
	setString(&f.Email, p.Email)
	setString(&f.ProfileURL, p.ProfileURL)
	setString(&f.LabURL, p.LabURL)
	setString(&f.RecentActivity, p.RecentActivity)
	setString(&f.RecruitingStatus, p.RecruitingStatus)
	setString(&f.Location, p.Location)
	setString(&f.Country, p.Country)
	setString(&f.FieldCategory, p.FieldCategory)
	setString(&f.Notes, p.Notes)
}

// FacultyFilter narrows a faculty database listing. Empty fields match everything.
type FacultyFilter struct {
	Country       string
	FieldCategory string
	Query         string // substring of name, university, department or research areas
	ClientID      string // only records linked to this client
}

// Matches reports whether f passes the filter.
func (flt FacultyFilter) Matches(f *FacultyRecord) bool {
	if flt.Country != "" && !strings.EqualFold(flt.Country, f.Country) {
		return false
	}
	if flt.FieldCategory != "" && !strings.EqualFold(flt.FieldCategory, f.FieldCategory) {
		return false
	}
	if flt.ClientID != "" && !f.HasLinkedClient(flt.ClientID) {
		return false
	}
	if flt.Query == "" {
		return true
	}
	q := strings.ToLower(flt.Query)
	haystack := []string{f.Name, f.University, f.Department}
	haystack = append(haystack, f.ResearchAreas...)
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), q) {
			return true
		}
	}
	return false
}
