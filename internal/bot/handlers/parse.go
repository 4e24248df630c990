package handlers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/edgard/zanbot/internal/onebot"
)

// Bounds of the like count.
const (
	MinTimes = 1
	MaxTimes = 20

	DefaultSelfTimes   = 10
	DefaultTargetTimes = 1
)

// CommandPrefix starts every recognized command. The check is case-sensitive.
const CommandPrefix = ".zan"

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// ParsedMessage is the text and mention targets extracted from one message.
type ParsedMessage struct {
	Text     string
	Mentions []string
}

// ParseMessage concatenates the text segments in order and trims the result,
// and collects at-segment targets in order. Targets equal to selfID and empty
// targets are left out.
func ParseMessage(msg onebot.Message, selfID string) ParsedMessage {
	var (
		text     strings.Builder
		mentions []string
	)
	for _, seg := range msg {
		switch seg.Type {
		case onebot.SegmentText:
			text.WriteString(seg.Data.Text)
		case onebot.SegmentAt:
			qq := seg.Data.QQ.String()
			if qq == "" || (selfID != "" && qq == selfID) {
				continue
			}
			mentions = append(mentions, qq)
		}
	}
	return ParsedMessage{Text: strings.TrimSpace(text.String()), Mentions: mentions}
}

// Clamp bounds n to [MinTimes, MaxTimes].
func Clamp(n int) int {
	return min(max(n, MinTimes), MaxTimes)
}

// IsDigits reports whether s is one or more ASCII digits.
func IsDigits(s string) bool {
	return digitsPattern.MatchString(s)
}

// parseCount reads the count at tokens[idx]. An absent or non-numeric token
// yields def. The result is always clamped.
func parseCount(tokens []string, idx, def int) int {
	if idx >= len(tokens) || !IsDigits(tokens[idx]) {
		return Clamp(def)
	}
	n, err := strconv.Atoi(tokens[idx])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return MaxTimes
		}
		return Clamp(def)
	}
	return Clamp(n)
}
