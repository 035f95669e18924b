package runner

import (
	"fmt"

	"toolwire/internal/util"
)

// DefaultFormatBytes caps the rendered output carried in events and
// returned to the conversation.
const DefaultFormatBytes = 10 * 1024

// FormatOutput renders an output for display: the aggregated stream
// with the middle elided once it exceeds the cap.
func FormatOutput(out *Output) string {
	formatted, _ := util.TruncateMiddle(out.Aggregated, DefaultFormatBytes)
	return formatted
}

// FormatOutputForModel renders an output for the conversation. Clean
// exits return the bare rendering; anything else gets the exit code
// and duration prepended so the model can reason about the failure.
func FormatOutputForModel(out *Output) string {
	formatted := FormatOutput(out)
	if out.ExitCode == 0 {
		return formatted
	}
	return fmt.Sprintf("command exited with code %d in %dms\n%s", out.ExitCode, out.Duration.Milliseconds(), formatted)
}
