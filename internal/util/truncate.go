package util

// TruncateBytes trims a string to maxBytes if needed.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	return input[:maxBytes], true
}

// TruncateMiddle keeps the head and tail of input under maxBytes and
// marks the elided span, so both the start of a command's output and
// its final lines survive truncation.
func TruncateMiddle(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	head := maxBytes / 2
	tail := maxBytes - head
	return input[:head] + "\n[... output truncated ...]\n" + input[len(input)-tail:], true
}
