package protocol

import "time"

// Type identifies an emitted event type.
type Type string

const (
	CommandBegin Type = "ExecCommandBegin"
	CommandEnd   Type = "ExecCommandEnd"
	PatchBegin   Type = "PatchApplyBegin"
	PatchEnd     Type = "PatchApplyEnd"
	TurnDiff     Type = "TurnDiff"
)

// Event is the common envelope delivered to subscribers.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CommandSource marks who initiated a command invocation.
type CommandSource string

const (
	// SourceAgent is a command requested by the driving model.
	SourceAgent CommandSource = "agent"
	// SourceUser is a command forwarded from the user's own shell.
	SourceUser CommandSource = "user"
	// SourceInteraction is input fed into an already-running
	// interactive exec session.
	SourceInteraction CommandSource = "interaction"
)

// FileChangeKind distinguishes the operations a patch can apply.
type FileChangeKind string

const (
	FileAdd    FileChangeKind = "add"
	FileModify FileChangeKind = "modify"
	FileDelete FileChangeKind = "delete"
)

// FileChange describes one file touched by a patch application.
type FileChange struct {
	Kind    FileChangeKind `json:"kind"`
	Content string         `json:"content,omitempty"`
}

// CommandBeginPayload is emitted when a command invocation starts.
type CommandBeginPayload struct {
	CallID           string          `json:"call_id"`
	TurnID           string          `json:"turn_id"`
	Command          []string        `json:"command"`
	Cwd              string          `json:"cwd"`
	ParsedCmd        []ParsedCommand `json:"parsed_cmd"`
	Source           CommandSource   `json:"source"`
	InteractionInput string          `json:"interaction_input,omitempty"`
}

// CommandEndPayload closes a command invocation. The identifying
// fields repeat the begin payload verbatim so consumers can pair the
// two without keeping state.
type CommandEndPayload struct {
	CallID           string          `json:"call_id"`
	TurnID           string          `json:"turn_id"`
	Command          []string        `json:"command"`
	Cwd              string          `json:"cwd"`
	ParsedCmd        []ParsedCommand `json:"parsed_cmd"`
	Source           CommandSource   `json:"source"`
	InteractionInput string          `json:"interaction_input,omitempty"`
	Stdout           string          `json:"stdout"`
	Stderr           string          `json:"stderr"`
	AggregatedOutput string          `json:"aggregated_output"`
	ExitCode         int             `json:"exit_code"`
	DurationMs       int64           `json:"duration_ms"`
	FormattedOutput  string          `json:"formatted_output"`
}

// PatchBeginPayload is emitted when a patch application starts.
type PatchBeginPayload struct {
	CallID       string                `json:"call_id"`
	AutoApproved bool                  `json:"auto_approved"`
	Changes      map[string]FileChange `json:"changes"`
}

// PatchEndPayload closes a patch application.
type PatchEndPayload struct {
	CallID  string `json:"call_id"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Success bool   `json:"success"`
}

// TurnDiffPayload carries the accumulated unified diff for the turn.
type TurnDiffPayload struct {
	UnifiedDiff string `json:"unified_diff"`
}
