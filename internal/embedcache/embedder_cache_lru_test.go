package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func (c *countingEmbedder) ModelName() string { return "count-model" }

func TestLruEmbedderCachesByTextAndTaskType(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, first)
	require.Equal(t, 1, inner.calls)

	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, second)
	require.Equal(t, 1, inner.calls)

	// a different task type is a different cache entry
	_, err = cached.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)

	_, err = cached.Embed(context.Background(), "other", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 3, inner.calls)
}

func TestLruEmbedderReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2}}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "q")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(context.Background(), "hello", "q")
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestLruEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("boom")}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "hello", "q")
	require.Error(t, err)
	_, err = cached.Embed(context.Background(), "hello", "q")
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestWrapDisabledWhenMisconfigured(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
}
