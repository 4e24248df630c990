package handlers

import (
	"context"
	"strings"

	"github.com/edgard/zanbot/internal/onebot"
)

// Outcome describes what the interpreter did with one event.
type Outcome struct {
	// Command is the recognized command word, empty when the event was not a command.
	Command string
	// Handled is true when send_like was attempted.
	Handled bool
	Target  string
	Times   int
	// Err is the send_like error, if any.
	Err error
}

// Interpreter recognizes like commands in message events and runs them.
type Interpreter struct {
	deps     HandlerDeps
	commands map[string]RegisteredHandler
}

// NewInterpreter builds an interpreter with all registered commands.
func NewInterpreter(deps HandlerDeps) *Interpreter {
	return &Interpreter{
		deps:     deps,
		commands: RegisterAllCommands(deps),
	}
}

// NewCommandHandler returns the OneBot handler that interprets every event.
func NewCommandHandler(deps HandlerDeps) onebot.HandlerFunc {
	return NewInterpreter(deps).Handle
}

// Interpret runs the command carried by ev, if any. Remote call failures are
// reported in the Outcome and never panic or propagate further.
func (in *Interpreter) Interpret(ctx context.Context, ev *onebot.Event) Outcome {
	if ev == nil || ev.PostType != onebot.PostTypeMessage {
		return Outcome{}
	}

	var selfID string
	if in.deps.Session != nil {
		selfID = in.deps.Session.SelfID()
	}
	parsed := ParseMessage(ev.Message, selfID)
	if !strings.HasPrefix(parsed.Text, CommandPrefix) {
		return Outcome{}
	}

	tokens := strings.Fields(parsed.Text)
	cmd, ok := in.commands[strings.ToLower(tokens[0])]
	if !ok {
		return Outcome{}
	}

	return cmd.Handler(ctx, &Request{Event: ev, Parsed: parsed, Tokens: tokens})
}

// Handle is the onebot.HandlerFunc form of Interpret. It logs the outcome.
func (in *Interpreter) Handle(ctx context.Context, ev *onebot.Event) {
	out := in.Interpret(ctx, ev)
	if out.Command == "" {
		return
	}

	log := in.deps.Logger.With("handler", "like", "command", out.Command,
		"user_id", ev.UserID, "group_id", ev.GroupID)
	switch {
	case !out.Handled:
		log.DebugContext(ctx, "Command had no resolvable target")
	case out.Err != nil:
		log.WarnContext(ctx, "Failed to send like", "target", out.Target, "times", out.Times, "error", out.Err)
	default:
		log.InfoContext(ctx, "Like sent", "target", out.Target, "times", out.Times)
	}
}
