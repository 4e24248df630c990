package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/zanbot/internal/errors"
)

func TestGocronLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewGocronLogger(newLogger(&buf, "debug", true))

	log.Error("job failed", "error", errors.New("boom"), "job", "sql_maintenance")
	out := buf.String()
	assert.Contains(t, out, `"source":"gocron"`)
	assert.Contains(t, out, `"error":"scheduler error: boom"`)
	assert.Contains(t, out, `"job":"sql_maintenance"`)
}

func TestSchedulerArgs(t *testing.T) {
	t.Parallel()

	args := schedulerArgs([]any{"error", gocron.ErrJobNotFound, "dangling"})
	require.Len(t, args, 3)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(args[1].(error)))
	assert.ErrorIs(t, args[1].(error), gocron.ErrJobNotFound)
	assert.Equal(t, "dangling", args[2])

	coded := apperrors.NewDatabaseError("vacuum", errors.New("locked"))
	args = schedulerArgs([]any{"error", coded})
	assert.Same(t, coded, args[1])
}
