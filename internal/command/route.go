package command

import (
	"errors"
	"fmt"
	"strings"

	"pkt.systems/nexus/schema"
)

var (
	// ErrUnknownCommand indicates a slash command with no route.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage indicates a known command with bad arguments.
	ErrUsage = errors.New("usage")
)

// Local names commands handled by the console itself.
type Local string

const (
	LocalNone Local = ""
	LocalTabs Local = "tabs"
	LocalHelp Local = "help"
	LocalQuit Local = "quit"
)

// Action is the result of routing one console line: either a bridge message
// or a console-local command.
type Action struct {
	Channel schema.Channel
	Payload any
	Local   Local
}

type route struct {
	name    string
	aliases []string
	usage   string
	summary string
	build   func(cmd Command) (Action, error)
}

var routes = []route{
	{name: "new", usage: "/new", summary: "open a tab on the homepage", build: send(schema.ChannelNewTab)},
	{name: "close", usage: "/close", summary: "close the active tab", build: send(schema.ChannelCloseTab)},
	{name: "reload", usage: "/reload", summary: "reload the active tab", build: send(schema.ChannelReloadTab)},
	{name: "back", usage: "/back", summary: "go back in the active tab", build: send(schema.ChannelGoBack)},
	{name: "forward", usage: "/forward", summary: "go forward in the active tab", build: send(schema.ChannelGoForward)},
	{name: "next", usage: "/next", summary: "activate the next tab", build: send(schema.ChannelNextTab)},
	{name: "prev", aliases: []string{"previous"}, usage: "/prev", summary: "activate the previous tab", build: send(schema.ChannelPreviousTab)},
	{name: "zoom", usage: "/zoom in|out|reset", summary: "change the zoom of the active tab", build: buildZoom},
	{name: "mute", usage: "/mute", summary: "toggle audio of the active tab", build: send(schema.ChannelToggleMute)},
	{name: "devtools", usage: "/devtools", summary: "toggle developer tools for the active tab", build: send(schema.ChannelDevTools)},
	{name: "go", aliases: []string{"open"}, usage: "/go <address or search terms>", summary: "navigate the active tab", build: buildNavigate},
	{name: "tab", usage: "/tab <id>", summary: "activate a tab by id", build: buildActivate},
	{name: "settings", usage: "/settings [edit <engine> [homepage]|save [<engine> [homepage]]|cancel]", summary: "show or change settings", build: buildSettings},
	{name: "tabs", usage: "/tabs", summary: "list open tabs", build: local(LocalTabs)},
	{name: "help", usage: "/help", summary: "show this help", build: local(LocalHelp)},
	{name: "quit", aliases: []string{"exit"}, usage: "/quit", summary: "exit", build: local(LocalQuit)},
}

// Resolve routes a console line. Lines without a leading "/" navigate the
// active tab; blank lines resolve to the zero Action.
func Resolve(line string) (Action, error) {
	cmd, ok := Parse(line)
	if !ok {
		input := strings.TrimSpace(line)
		if input == "" {
			return Action{}, nil
		}
		return Action{Channel: schema.ChannelNavigate, Payload: schema.NavigateRequest{Input: input}}, nil
	}
	for _, r := range routes {
		if r.matches(cmd.Name) {
			return r.build(cmd)
		}
	}
	return Action{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, cmd.Name)
}

// Help renders the command reference.
func Help() string {
	var b strings.Builder
	width := 0
	for _, r := range routes {
		width = max(width, len(r.usage))
	}
	for _, r := range routes {
		fmt.Fprintf(&b, "%-*s  %s\n", width, r.usage, r.summary)
	}
	b.WriteString("Anything else is navigated to as an address or searched for.\n")
	return b.String()
}

func (r route) matches(name string) bool {
	if name == r.name {
		return true
	}
	for _, alias := range r.aliases {
		if name == alias {
			return true
		}
	}
	return false
}

func send(channel schema.Channel) func(Command) (Action, error) {
	return func(Command) (Action, error) {
		return Action{Channel: channel}, nil
	}
}

func local(name Local) func(Command) (Action, error) {
	return func(Command) (Action, error) {
		return Action{Local: name}, nil
	}
}

func buildZoom(cmd Command) (Action, error) {
	if len(cmd.Args) != 1 {
		return Action{}, fmt.Errorf("%w: /zoom in|out|reset", ErrUsage)
	}
	switch strings.ToLower(cmd.Args[0]) {
	case "in", "+":
		return Action{Channel: schema.ChannelZoomIn}, nil
	case "out", "-":
		return Action{Channel: schema.ChannelZoomOut}, nil
	case "reset", "0":
		return Action{Channel: schema.ChannelZoomReset}, nil
	default:
		return Action{}, fmt.Errorf("%w: /zoom in|out|reset", ErrUsage)
	}
}

func buildNavigate(cmd Command) (Action, error) {
	if cmd.Remainder == "" {
		return Action{}, fmt.Errorf("%w: /go <address or search terms>", ErrUsage)
	}
	return Action{Channel: schema.ChannelNavigate, Payload: schema.NavigateRequest{Input: cmd.Remainder}}, nil
}

func buildActivate(cmd Command) (Action, error) {
	if len(cmd.Args) != 1 {
		return Action{}, fmt.Errorf("%w: /tab <id>", ErrUsage)
	}
	id, err := schema.ParseTabID(cmd.Args[0])
	if err != nil {
		return Action{}, fmt.Errorf("%w: /tab <id>: %q is not a tab id", ErrUsage, cmd.Args[0])
	}
	return Action{Channel: schema.ChannelActivateTab, Payload: schema.ActivateTabRequest{ID: id}}, nil
}

func buildSettings(cmd Command) (Action, error) {
	if len(cmd.Args) == 0 {
		return Action{Channel: schema.ChannelOpenSettings}, nil
	}
	rest := cmd.Args[1:]
	switch strings.ToLower(cmd.Args[0]) {
	case "show":
		return Action{Channel: schema.ChannelOpenSettings}, nil
	case "cancel":
		return Action{Channel: schema.ChannelCancelSettings}, nil
	case "edit":
		if len(rest) == 0 || len(rest) > 2 {
			return Action{}, fmt.Errorf("%w: /settings edit <engine> [homepage]", ErrUsage)
		}
		return Action{Channel: schema.ChannelEditSettings, Payload: settingsRequest(rest)}, nil
	case "save":
		if len(rest) > 2 {
			return Action{}, fmt.Errorf("%w: /settings save [<engine> [homepage]]", ErrUsage)
		}
		if len(rest) == 0 {
			return Action{Channel: schema.ChannelSaveSettings}, nil
		}
		return Action{Channel: schema.ChannelSaveSettings, Payload: settingsRequest(rest)}, nil
	default:
		return Action{}, fmt.Errorf("%w: /settings [edit|save|cancel]", ErrUsage)
	}
}

func settingsRequest(args []string) schema.SettingsRequest {
	req := schema.SettingsRequest{Engine: args[0]}
	if len(args) > 1 {
		req.Homepage = args[1]
	}
	return req
}
