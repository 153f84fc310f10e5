package models

import "time"

// DocumentType classifies a client document.
type DocumentType string

const (
	DocumentTypePSOutline         DocumentType = "ps_outline"
	DocumentTypePersonalStatement DocumentType = "personal_statement"
	DocumentTypeEssay             DocumentType = "essay"
	DocumentTypeRecommendation    DocumentType = "recommendation_letter"
	DocumentTypeCV                DocumentType = "cv"
	DocumentTypeOther             DocumentType = "other"
)

// IsGeneratable returns true if the AI drafting workflow supports this type.
func (t DocumentType) IsGeneratable() bool {
	switch t {
	case DocumentTypePSOutline, DocumentTypePersonalStatement, DocumentTypeEssay,
		DocumentTypeRecommendation, DocumentTypeCV:
		return true
	default:
		return false
	}
}

// Label returns a human-readable name used in default document titles.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypePSOutline:
		return "Personal Statement Outline"
	case DocumentTypePersonalStatement:
		return "Personal Statement"
	case DocumentTypeEssay:
		return "Essay"
	case DocumentTypeRecommendation:
		return "Letter of Recommendation"
	case DocumentTypeCV:
		return "CV"
	default:
		return "Document"
	}
}

// Document is a piece of writing owned by one client.
type Document struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Type      DocumentType `json:"type"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// DocumentInput is the payload of saveDocument. An empty ID, or an ID not
// among the client's documents, creates a new document.
type DocumentInput struct {
	ID      string       `json:"id,omitempty"`
	Title   string       `json:"title"`
	Type    DocumentType `json:"type"`
	Content string       `json:"content"`
}
