// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package window

import (
	"fmt"
	"strings"
)

// CommandKind identifies what a line of input asks for.
type CommandKind int

const (
	// CmdPrompt is plain text to send to the provider.
	CmdPrompt CommandKind = iota
	CmdConfigShow
	CmdConfigProvider
	CmdConfigModel
	CmdConfigPrompt
	CmdModels
	CmdHelp
	CmdQuit
)

// Command is one parsed input line. Arg holds the prompt text or the
// command argument.
type Command struct {
	Kind CommandKind
	Arg  string
}

const helpText = `/config                   show the current settings
/config provider <name>   select a provider
/config model <name>      set the model of the selected provider
/config prompt <text>     set the system prompt
/models                   list models of the selected provider
/help                     show this help
/quit                     exit (also Esc or Ctrl+C)`

// ParseCommand interprets a line of input. Lines that do not start with "/"
// are prompts. A leading "//" sends a prompt that starts with a slash.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdPrompt, Arg: trimmed}, nil
	}
	if strings.HasPrefix(trimmed, "//") {
		return Command{Kind: CmdPrompt, Arg: trimmed[1:]}, nil
	}

	name, rest := splitWord(trimmed[1:])
	switch strings.ToLower(name) {
	case "config":
		return parseConfig(rest)
	case "models":
		return Command{Kind: CmdModels}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command /%s (try /help)", name)
}

func parseConfig(args string) (Command, error) {
	if args == "" {
		return Command{Kind: CmdConfigShow}, nil
	}
	sub, value := splitWord(args)
	var kind CommandKind
	switch strings.ToLower(sub) {
	case "provider":
		kind = CmdConfigProvider
	case "model":
		kind = CmdConfigModel
	case "prompt", "system-prompt":
		kind = CmdConfigPrompt
	default:
		return Command{}, fmt.Errorf("unknown /config option %q (want provider, model or prompt)", sub)
	}
	if value == "" {
		return Command{}, fmt.Errorf("/config %s needs a value", strings.ToLower(sub))
	}
	return Command{Kind: kind, Arg: value}, nil
}

// splitWord returns the first whitespace-delimited word of s and the
// trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
