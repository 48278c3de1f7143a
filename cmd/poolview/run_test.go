package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSnapshotLoopZeroIntervalDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := snapshotLoop(ctx, 0, nil, nil, nil, nil, "0xabc", zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
