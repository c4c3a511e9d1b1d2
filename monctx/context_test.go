package monctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
	assert.False(t, IsVerbose(SetVerbose(ctx, false)))
}

func TestTracef(t *testing.T) {
	var lines []string
	ctx := WithTracer(context.Background(), func(msg string) {
		lines = append(lines, msg)
	})
	Tracef(ctx, "quiet %d", 1)
	assert.Empty(t, lines)

	Tracef(SetVerbose(ctx, true), "reg %#02x", 0x05)
	assert.Equal(t, []string{"reg 0x05"}, lines)
}
