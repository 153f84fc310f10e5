package models

// ActiveTab identifies the top-level view the staff member last had open.
type ActiveTab string

const (
	TabClients         ActiveTab = "clients"
	TabDocuments       ActiveTab = "documents"
	TabFacultySearch   ActiveTab = "faculty-search"
	TabFacultyDatabase ActiveTab = "faculty-database"
	TabAssistant       ActiveTab = "assistant"
)

// DefaultTab is used when no tab has been persisted.
const DefaultTab = TabClients

// IsValid returns true if the tab is a known view.
func (t ActiveTab) IsValid() bool {
	switch t {
	case TabClients, TabDocuments, TabFacultySearch, TabFacultyDatabase, TabAssistant:
		return true
	default:
		return false
	}
}

// WorkspaceState is the full persisted state: the four storage slots.
type WorkspaceState struct {
	ActiveTab        ActiveTab        `json:"active_tab"`
	Clients          []*Client        `json:"clients"`
	Faculty          []*FacultyRecord `json:"faculty"`
	SelectedClientID string           `json:"selected_client_id,omitempty"`

	// Seeded is set when Clients came from the sample dataset rather than storage.
	Seeded bool `json:"-"`
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
