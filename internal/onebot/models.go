package onebot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Post types and message types used by OneBot v11 events.
const (
	PostTypeMessage     = "message"
	PostTypeMessageSent = "message_sent"
	PostTypeNotice      = "notice"
	PostTypeRequest     = "request"
	PostTypeMetaEvent   = "meta_event"

	MessageTypeGroup   = "group"
	MessageTypePrivate = "private"

	SegmentText = "text"
	SegmentAt   = "at"
)

// ID is a OneBot identifier. Implementations send ids either as JSON numbers
// or as strings; both decode to their decimal string form.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("onebot: id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Segment is one component of a message.
type Segment struct {
	Type string      `json:"type"`
	Data SegmentData `json:"data"`
}

// SegmentData carries the fields of the segment types the bot reads.
type SegmentData struct {
	Text string `json:"text,omitempty"`
	QQ   ID     `json:"qq,omitempty"`
}

// Message is the ordered list of segments of an event. Implementations
// configured for the string message format send CQ-coded text instead of an
// array; that form is converted to segments on decode.
type Message []Segment

// UnmarshalJSON accepts the array format and the CQ string format.
func (m *Message) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = ParseCQString(s)
		return nil
	}
	var segs []Segment
	if err := json.Unmarshal(b, &segs); err != nil {
		return err
	}
	*m = segs
	return nil
}

var cqCodePattern = regexp.MustCompile(`\[CQ:([a-zA-Z_]+)((?:,[^\]]*)?)\]`)

var cqUnescaper = strings.NewReplacer("&#91;", "[", "&#93;", "]", "&#44;", ",", "&amp;", "&")

// ParseCQString converts a CQ-coded message into text and at segments.
// CQ codes of other types are dropped.
func ParseCQString(s string) Message {
	var msg Message
	appendText := func(text string) {
		if text == "" {
			return
		}
		msg = append(msg, Segment{Type: SegmentText, Data: SegmentData{Text: cqUnescaper.Replace(text)}})
	}

	last := 0
	for _, loc := range cqCodePattern.FindAllStringSubmatchIndex(s, -1) {
		appendText(s[last:loc[0]])
		last = loc[1]

		codeType := s[loc[2]:loc[3]]
		if codeType != SegmentAt {
			continue
		}
		for _, kv := range strings.Split(strings.TrimPrefix(s[loc[4]:loc[5]], ","), ",") {
			key, value, ok := strings.Cut(kv, "=")
			if ok && key == "qq" {
				msg = append(msg, Segment{Type: SegmentAt, Data: SegmentData{QQ: ID(cqUnescaper.Replace(value))}})
			}
		}
	}
	appendText(s[last:])
	return msg
}

// Sender is the sender block of a message event.
type Sender struct {
	UserID   ID     `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Event is an inbound OneBot v11 event. Only the fields the bot uses are decoded.
type Event struct {
	Time          int64   `json:"time"`
	SelfID        ID      `json:"self_id"`
	PostType      string  `json:"post_type"`
	MessageType   string  `json:"message_type,omitempty"`
	SubType       string  `json:"sub_type,omitempty"`
	MessageID     ID      `json:"message_id,omitempty"`
	UserID        ID      `json:"user_id,omitempty"`
	GroupID       ID      `json:"group_id,omitempty"`
	RawMessage    string  `json:"raw_message,omitempty"`
	Message       Message `json:"message,omitempty"`
	Sender        *Sender `json:"sender,omitempty"`
	NoticeType    string  `json:"notice_type,omitempty"`
	MetaEventType string  `json:"meta_event_type,omitempty"`
}

// APIRequest is an action call sent to the implementation.
type APIRequest struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

// APIResponse is the answer to an APIRequest, matched by Echo.
type APIResponse struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Wording string          `json:"wording,omitempty"`
	Echo    ID              `json:"echo"`
}

// LoginInfo is the result of get_login_info.
type LoginInfo struct {
	UserID   ID     `json:"user_id"`
	Nickname string `json:"nickname"`
}

// SendLikeParams are the parameters of send_like.
type SendLikeParams struct {
	UserID string `json:"user_id"`
	Times  int    `json:"times"`
}

// SendMsgParams are the parameters of send_msg. GroupID is set for group
// messages and UserID for private ones.
type SendMsgParams struct {
	MessageType string `json:"message_type"`
	GroupID     string `json:"group_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Message     string `json:"message"`
}

// frame is used to tell events from action responses before full decoding.
type frame struct {
	PostType string          `json:"post_type"`
	Echo     json.RawMessage `json:"echo"`
}
