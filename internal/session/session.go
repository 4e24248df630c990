// Package session holds the bot account's own identity, fetched from the
// OneBot implementation once it is reachable.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/edgard/zanbot/internal/onebot"
)

// ErrNoUserID is returned when get_login_info succeeds without a user id.
var ErrNoUserID = errors.New("login info has no user_id")

// LoginInfoFetcher is the part of the OneBot client used by Bootstrap.
type LoginInfoFetcher interface {
	GetLoginInfo(ctx context.Context) (*onebot.LoginInfo, error)
}

// Identity is the bot's own numeric id. The zero value is an empty identity,
// which self-mention filtering treats as "nothing is self".
type Identity struct {
	mu     sync.RWMutex
	selfID string
}

// SelfID returns the known self id or "".
func (i *Identity) SelfID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.selfID
}

// Set stores id.
func (i *Identity) Set(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.selfID = id
}

// IsSelf reports whether id is the bot's own id. It is always false while the
// identity is empty.
func (i *Identity) IsSelf(id string) bool {
	self := i.SelfID()
	return self != "" && id == self
}

// Bootstrap fetches the login info and stores its user id. On failure the
// identity is left unchanged and the error is returned for the caller to log.
func (i *Identity) Bootstrap(ctx context.Context, fetcher LoginInfoFetcher) (string, error) {
	info, err := fetcher.GetLoginInfo(ctx)
	if err != nil {
		return "", err
	}
	if info == nil || info.UserID == "" || info.UserID == "0" {
		return "", ErrNoUserID
	}
	id := info.UserID.String()
	i.Set(id)
	return id, nil
}
