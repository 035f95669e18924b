package runner

import "time"

// Output is the raw result of executing a command: separate streams,
// an interleaved aggregate, the exit code, and the wall-clock duration.
type Output struct {
	Stdout     string
	Stderr     string
	Aggregated string
	ExitCode   int
	Duration   time.Duration
}
