package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/zanbot/internal/blacklist"
	"github.com/edgard/zanbot/internal/config"
	"github.com/edgard/zanbot/internal/database"
	"github.com/edgard/zanbot/internal/onebot"
	"github.com/edgard/zanbot/internal/session"
)

// Actions is the subset of the OneBot client the handlers call.
type Actions interface {
	SendLike(ctx context.Context, userID string, times int) error
	SendMsg(ctx context.Context, params onebot.SendMsgParams) error
}

// HandlerDeps provides dependencies for OneBot event handlers.
// Store may be nil, in which case like attempts are not recorded.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Actions   Actions
	Session   *session.Identity
	Blacklist *blacklist.Store
	Store     database.Store
}
