package protocol

// ParsedCommandKind classifies a command token for display purposes.
type ParsedCommandKind string

const (
	ParsedRead      ParsedCommandKind = "read"
	ParsedListFiles ParsedCommandKind = "list_files"
	ParsedSearch    ParsedCommandKind = "search"
	ParsedUnknown   ParsedCommandKind = "unknown"
)

// ParsedCommand is one structured, display-oriented token of a raw
// command line.
type ParsedCommand struct {
	Kind    ParsedCommandKind `json:"kind"`
	Command string            `json:"command"`
	Target  string            `json:"target,omitempty"`
}
