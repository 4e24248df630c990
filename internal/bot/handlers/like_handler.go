package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/zanbot/internal/database"
	apperrors "github.com/edgard/zanbot/internal/errors"
	"github.com/edgard/zanbot/internal/onebot"
)

const dbSaveTimeout = 5 * time.Second

// NewLikeSelfHandler returns the handler for .zanwo [count].
func NewLikeSelfHandler(deps HandlerDeps) CommandFunc {
	return likeHandler{deps}.handleSelf
}

// NewLikeTargetHandler returns the handler for .zan <@mention|id> [count].
func NewLikeTargetHandler(deps HandlerDeps) CommandFunc {
	return likeHandler{deps}.handleTarget
}

type likeHandler struct {
	deps HandlerDeps
}

func (h likeHandler) handleSelf(ctx context.Context, req *Request) Outcome {
	target := req.Event.UserID.String()
	if target == "" {
		return Outcome{Command: database.CommandLikeSelf}
	}
	times := parseCount(req.Tokens, 1, DefaultSelfTimes)

	out := h.like(ctx, req.Event, database.CommandLikeSelf, target, times)
	if out.Err != nil {
		h.reply(ctx, req.Event, h.failureText(out.Err))
	} else {
		h.reply(ctx, req.Event, fmt.Sprintf(h.deps.Config.Messages.LikeSelfOK, times))
	}
	return out
}

func (h likeHandler) handleTarget(ctx context.Context, req *Request) Outcome {
	var (
		target string
		times  int
	)
	switch {
	case len(req.Parsed.Mentions) > 0:
		target = req.Parsed.Mentions[0]
		times = parseCount(req.Tokens, 1, DefaultTargetTimes)
	case len(req.Tokens) > 1 && IsDigits(req.Tokens[1]):
		target = req.Tokens[1]
		times = parseCount(req.Tokens, 2, DefaultTargetTimes)
	default:
		h.reply(ctx, req.Event, h.deps.Config.Messages.Usage)
		return Outcome{Command: database.CommandLikeTarget}
	}

	out := h.like(ctx, req.Event, database.CommandLikeTarget, target, times)
	if out.Err != nil {
		h.reply(ctx, req.Event, fmt.Sprintf("%s (%s)", h.failureText(out.Err), target))
	} else {
		h.reply(ctx, req.Event, fmt.Sprintf(h.deps.Config.Messages.LikeTargetOK, target, times))
	}
	return out
}

// like performs the single send_like attempt and records it.
func (h likeHandler) like(ctx context.Context, ev *onebot.Event, command, target string, times int) Outcome {
	err := h.deps.Actions.SendLike(ctx, target, times)
	h.record(ctx, ev, command, target, times, err)
	return Outcome{Command: command, Handled: true, Target: target, Times: times, Err: err}
}

func (h likeHandler) record(ctx context.Context, ev *onebot.Event, command, target string, times int, likeErr error) {
	if h.deps.Store == nil {
		return
	}
	rec := &database.LikeRecord{
		Command:  command,
		SenderID: ev.UserID.String(),
		GroupID:  ev.GroupID.String(),
		TargetID: target,
		Times:    times,
		Success:  likeErr == nil,
	}
	if likeErr != nil {
		rec.Error = likeErr.Error()
	}

	saveCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if err := h.deps.Store.SaveLike(saveCtx, rec); err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to record like attempt", "target", target, "error", err)
	}
}

// failureText prefers the rate limit message when the implementation
// rejected the call.
func (h likeHandler) failureText(err error) string {
	if _, ok := apperrors.AsAction(err); ok {
		return h.deps.Config.Messages.LikeLimited
	}
	return fmt.Sprintf(h.deps.Config.Messages.LikeFailed, err.Error())
}

// reply sends text back where ev came from when the reply policy is on.
// Failures are logged.
func (h likeHandler) reply(ctx context.Context, ev *onebot.Event, text string) {
	if !h.deps.Config.Policy.Reply {
		return
	}

	params := onebot.SendMsgParams{Message: text}
	if ev.MessageType == onebot.MessageTypeGroup || (ev.MessageType == "" && ev.GroupID != "") {
		params.MessageType = onebot.MessageTypeGroup
		params.GroupID = ev.GroupID.String()
	} else {
		params.MessageType = onebot.MessageTypePrivate
		params.UserID = ev.UserID.String()
	}

	if err := h.deps.Actions.SendMsg(ctx, params); err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to send reply",
			"message_type", params.MessageType, "group_id", params.GroupID, "user_id", params.UserID, "error", err)
	}
}
