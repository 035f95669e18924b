// Package parse turns a raw command line into the structured,
// display-oriented token sequence carried by command events. Parsing
// is pure and total: input that cannot be tokenized degrades to a
// single unknown token rather than failing.
package parse

import (
	"bytes"
	"errors"
	"strings"

	"toolwire/internal/protocol"
)

var (
	readCommands = map[string]struct{}{
		"cat": {}, "head": {}, "tail": {}, "less": {}, "more": {}, "wc": {},
	}
	listCommands = map[string]struct{}{
		"ls": {}, "find": {}, "tree": {},
	}
	searchCommands = map[string]struct{}{
		"grep": {}, "rg": {}, "ag": {}, "egrep": {}, "fgrep": {},
	}
)

// Command decomposes an argv into display tokens. Wrapper invocations
// of the form ["bash", "-lc", SCRIPT] are unwrapped so the script
// itself is what gets classified.
func Command(command []string) []protocol.ParsedCommand {
	tokens, ok := unwrap(command)
	if !ok {
		return []protocol.ParsedCommand{unknown(command)}
	}
	return []protocol.ParsedCommand{classify(tokens)}
}

func unwrap(command []string) ([]string, bool) {
	if len(command) == 3 && isShell(command[0]) && strings.HasPrefix(command[1], "-") && strings.Contains(command[1], "c") {
		tokens, err := splitScript(command[2])
		if err != nil || len(tokens) == 0 {
			return nil, false
		}
		return tokens, true
	}
	if len(command) == 0 {
		return nil, false
	}
	return command, true
}

func isShell(name string) bool {
	switch name {
	case "bash", "sh", "zsh", "/bin/bash", "/bin/sh", "/bin/zsh":
		return true
	}
	return false
}

func classify(tokens []string) protocol.ParsedCommand {
	name := strings.ToLower(tokens[0])
	full := strings.Join(tokens, " ")
	if _, ok := readCommands[name]; ok {
		return protocol.ParsedCommand{Kind: protocol.ParsedRead, Command: full, Target: firstOperand(tokens[1:])}
	}
	if _, ok := listCommands[name]; ok {
		return protocol.ParsedCommand{Kind: protocol.ParsedListFiles, Command: full, Target: firstOperand(tokens[1:])}
	}
	if _, ok := searchCommands[name]; ok {
		return protocol.ParsedCommand{Kind: protocol.ParsedSearch, Command: full, Target: firstOperand(tokens[1:])}
	}
	return protocol.ParsedCommand{Kind: protocol.ParsedUnknown, Command: full}
}

func firstOperand(args []string) string {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	return ""
}

func unknown(command []string) protocol.ParsedCommand {
	return protocol.ParsedCommand{Kind: protocol.ParsedUnknown, Command: strings.Join(command, " ")}
}

// splitScript tokenizes a shell script fragment with quote and escape
// awareness. It handles the single-command case; scripts with control
// operators stay a single unknown token via the error path.
func splitScript(input string) ([]string, error) {
	var args []string
	var buf bytes.Buffer
	inSingle := false
	inDouble := false
	escape := false

	for _, r := range input {
		if escape {
			buf.WriteRune(r)
			escape = false
			continue
		}
		if r == '\\' && !inSingle {
			escape = true
			continue
		}
		if r == '\'' && !inDouble {
			inSingle = !inSingle
			continue
		}
		if r == '"' && !inSingle {
			inDouble = !inDouble
			continue
		}
		if (r == ';' || r == '|' || r == '&') && !inSingle && !inDouble {
			return nil, errors.New("control operator in command")
		}
		if (r == ' ' || r == '\t' || r == '\n') && !inSingle && !inDouble {
			if buf.Len() > 0 {
				args = append(args, buf.String())
				buf.Reset()
			}
			continue
		}
		buf.WriteRune(r)
	}
	if escape || inSingle || inDouble {
		return nil, errors.New("unterminated quote or escape in command")
	}
	if buf.Len() > 0 {
		args = append(args, buf.String())
	}
	return args, nil
}
