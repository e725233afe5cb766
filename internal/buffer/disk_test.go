package buffer

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskBufferSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenDiskBuffer(dir, 1<<20, Block)
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, logRecord("one")))
	require.NoError(t, b.Send(ctx, logRecord("two")))
	require.NoError(t, b.Close())

	b2, err := OpenDiskBuffer(dir, 1<<20, Block)
	require.NoError(t, err)
	defer b2.Close()

	rec1, err := b2.Next(ctx)
	require.NoError(t, err)
	msg1, _ := rec1.Event.Log.Fields.Get("message")
	assert.Equal(t, "one", msg1.String())

	rec2, err := b2.Next(ctx)
	require.NoError(t, err)
	msg2, _ := rec2.Event.Log.Fields.Get("message")
	assert.Equal(t, "two", msg2.String())
}

func TestDiskBufferDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenDiskBuffer(dir, 1<<20, Block)
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, logRecord("one")))
	require.NoError(t, b.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	path := dir + "/" + entries[0].Name()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte inside the payload region (after the 8-byte length+crc
	// header) to corrupt it without changing the declared length.
	require.Greater(t, len(data), 9)
	data[9] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = OpenDiskBuffer(dir, 1<<20, Block)
	require.Error(t, err)
}

func TestDiskBufferFlushSyncsCurrentSegment(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenDiskBuffer(dir, 1<<20, Block)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Send(ctx, logRecord("one")))
	require.NoError(t, b.Flush())
}

func TestDiskBufferDropNewestSignalsDrop(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenDiskBuffer(dir, 1<<20, DropNewest)
	require.NoError(t, err)
	defer b.Close()

	var reasons []string
	b.SetDropHandler(func(reason string) { reasons = append(reasons, reason) })

	// Fill the in-memory delivery queue without draining it so the next
	// Send has nowhere to enqueue and must fall back to the drop policy.
	for i := 0; i < diskBufferQueueDepth+1; i++ {
		require.NoError(t, b.Send(ctx, logRecord("x")))
	}

	require.NotEmpty(t, reasons)
}

func TestDiskBufferRollsSegmentAtSize(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := OpenDiskBuffer(dir, 16, Block) // tiny segment size forces rolls
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Send(ctx, logRecord("x")))
	}
	require.NoError(t, b.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Greater(t, len(entries), 1)
}
