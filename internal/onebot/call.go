package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/edgard/zanbot/internal/errors"
)

// Action names used by the bot.
const (
	ActionGetLoginInfo = "get_login_info"
	ActionSendLike     = "send_like"
	ActionSendMsg      = "send_msg"
)

// Call performs one action and returns the raw data of a successful response.
// A failed status or non-zero retcode is returned as an *errors.ActionError.
// There is exactly one attempt per call.
func (c *Client) Call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	conn := c.currentConn()
	if conn == nil {
		return nil, apperrors.NewTransportError("call "+action, ErrNotConnected)
	}
	if params == nil {
		params = map[string]any{}
	}

	echo := uuid.NewString()
	ch := make(chan *APIResponse, 1)

	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
	}()

	data, err := json.Marshal(APIRequest{Action: action, Params: params, Echo: echo})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", action, err)
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return nil, apperrors.NewTransportError("write "+action+" request", err)
	}

	c.logger.DebugContext(ctx, "Action sent", "action", action, "echo", echo)

	timer := time.NewTimer(c.callTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, apperrors.NewTransportError("call "+action, fmt.Errorf("connection closed before response"))
		}
		if resp.Status == "failed" || resp.RetCode != 0 {
			msg := resp.Wording
			if msg == "" {
				msg = resp.Message
			}
			return nil, apperrors.NewActionError(action, resp.RetCode, msg)
		}
		return resp.Data, nil
	case <-timer.C:
		return nil, apperrors.NewTransportError("call "+action, fmt.Errorf("timed out after %s", c.callTimeout))
	case <-ctx.Done():
		return nil, apperrors.NewTransportError("call "+action, ctx.Err())
	}
}

// GetLoginInfo returns the account the implementation is logged in as.
func (c *Client) GetLoginInfo(ctx context.Context) (*LoginInfo, error) {
	data, err := c.Call(ctx, ActionGetLoginInfo, nil)
	if err != nil {
		return nil, err
	}
	var info LoginInfo
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", ActionGetLoginInfo, err)
		}
	}
	return &info, nil
}

// SendLike sends times profile likes to userID.
func (c *Client) SendLike(ctx context.Context, userID string, times int) error {
	_, err := c.Call(ctx, ActionSendLike, SendLikeParams{UserID: userID, Times: times})
	return err
}

// SendMsg sends a text message to a group or a user.
func (c *Client) SendMsg(ctx context.Context, params SendMsgParams) error {
	_, err := c.Call(ctx, ActionSendMsg, params)
	return err
}
