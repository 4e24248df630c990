package handlers

import (
	"context"

	"github.com/edgard/zanbot/internal/database"
	"github.com/edgard/zanbot/internal/onebot"
)

// Request is a recognized command invocation.
type Request struct {
	Event  *onebot.Event
	Parsed ParsedMessage
	// Tokens is the trimmed text split on whitespace. Tokens[0] is the command word.
	Tokens []string
}

// CommandFunc runs one command and reports what it did.
type CommandFunc func(ctx context.Context, req *Request) Outcome

// RegisteredHandler represents a command handler with its description.
type RegisteredHandler struct {
	Command     string
	Description string
	Handler     CommandFunc
}

// RegisterAllCommands returns the available commands keyed by their
// lower-cased command word.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers[database.CommandLikeSelf] = RegisteredHandler{
		Command:     database.CommandLikeSelf,
		Description: "Send profile likes to the sender",
		Handler:     NewLikeSelfHandler(deps),
	}
	handlers[database.CommandLikeTarget] = RegisteredHandler{
		Command:     database.CommandLikeTarget,
		Description: "Send profile likes to a mentioned user or a numeric id",
		Handler:     NewLikeTargetHandler(deps),
	}

	return handlers
}
