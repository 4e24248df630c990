package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/zanbot/internal/onebot"
)

type fetcherFunc func(ctx context.Context) (*onebot.LoginInfo, error)

func (f fetcherFunc) GetLoginInfo(ctx context.Context) (*onebot.LoginInfo, error) {
	return f(ctx)
}

func TestBootstrapStoresUserID(t *testing.T) {
	t.Parallel()

	var id Identity
	got, err := id.Bootstrap(context.Background(), fetcherFunc(func(context.Context) (*onebot.LoginInfo, error) {
		return &onebot.LoginInfo{UserID: "999", Nickname: "bot"}, nil
	}))

	require.NoError(t, err)
	assert.Equal(t, "999", got)
	assert.Equal(t, "999", id.SelfID())
	assert.True(t, id.IsSelf("999"))
	assert.False(t, id.IsSelf("111"))
}

func TestBootstrapFailureLeavesIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		info    *onebot.LoginInfo
		err     error
		wantErr error
	}{
		{name: "call error", err: errors.New("not connected")},
		{name: "missing user id", info: &onebot.LoginInfo{}, wantErr: ErrNoUserID},
		{name: "zero user id", info: &onebot.LoginInfo{UserID: "0"}, wantErr: ErrNoUserID},
		{name: "nil info", wantErr: ErrNoUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var empty Identity
			_, err := empty.Bootstrap(context.Background(), fetcherFunc(func(context.Context) (*onebot.LoginInfo, error) {
				return tt.info, tt.err
			}))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, empty.SelfID())

			var known Identity
			known.Set("999")
			_, err = known.Bootstrap(context.Background(), fetcherFunc(func(context.Context) (*onebot.LoginInfo, error) {
				return tt.info, tt.err
			}))
			require.Error(t, err)
			assert.Equal(t, "999", known.SelfID())
		})
	}
}

func TestEmptyIdentityMatchesNothing(t *testing.T) {
	t.Parallel()

	var id Identity
	assert.False(t, id.IsSelf(""))
	assert.False(t, id.IsSelf("999"))
}
