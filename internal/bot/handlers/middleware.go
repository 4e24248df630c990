// Package handlers contains the OneBot command handlers, their registration
// and the event middleware.
package handlers

import (
	"context"

	"github.com/edgard/zanbot/internal/onebot"
)

// Blacklisted creates a middleware that drops message events from a blocked
// group or a blocked sender before any command handling happens.
func Blacklisted(deps HandlerDeps) onebot.Middleware {
	return func(next onebot.HandlerFunc) onebot.HandlerFunc {
		return func(ctx context.Context, ev *onebot.Event) {
			if ev.PostType != onebot.PostTypeMessage || deps.Blacklist == nil {
				next(ctx, ev)
				return
			}

			groupID := ev.GroupID.String()
			userID := ev.UserID.String()
			if deps.Blacklist.IsGroupBlocked(groupID) || deps.Blacklist.IsUserBlocked(userID) {
				deps.Logger.With("middleware", "Blacklisted").DebugContext(ctx, "Ignoring blacklisted event",
					"user_id", userID, "group_id", groupID)
				return
			}

			next(ctx, ev)
		}
	}
}

// EventMiddlewares returns the middleware chain for the command handler
// according to the configured policies, outermost first.
func EventMiddlewares(deps HandlerDeps) []onebot.Middleware {
	var mw []onebot.Middleware
	if deps.Config.Policy.Blacklist {
		mw = append(mw, Blacklisted(deps))
	}
	return mw
}
