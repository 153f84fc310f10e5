package models

// FacultySource records how a faculty record entered the database.
type FacultySource string

const (
	FacultySourceSearch FacultySource = "search" // Saved from an AI web search
	FacultySourceManual FacultySource = "manual" // Entered through the manual form
	FacultySourceMCP    FacultySource = "mcp"    // Added by an MCP client
)

// String returns the string representation of a FacultySource.
func (s FacultySource) String() string {
	return string(s)
}

// IsValid returns true if the source is a known faculty source.
func (s FacultySource) IsValid() bool {
	switch s {
	case FacultySourceSearch, FacultySourceManual, FacultySourceMCP:
		return true
	default:
		return false
	}
}
