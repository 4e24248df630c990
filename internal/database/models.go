package database

import "time"

// Commands recorded in the like history.
const (
	CommandLikeSelf   = ".zanwo"
	CommandLikeTarget = ".zan"
)

// LikeRecord is one send_like attempt. GroupID is empty for private messages
// and Error is empty on success.
type LikeRecord struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Command  string `db:"command" json:"command"`
	SenderID string `db:"sender_id" json:"senderId"`
	GroupID  string `db:"group_id" json:"groupId,omitempty"`
	TargetID string `db:"target_id" json:"targetId"`
	Times    int    `db:"times" json:"times"`
	Success  bool   `db:"success" json:"success"`
	Error    string `db:"error" json:"error,omitempty"`
}
