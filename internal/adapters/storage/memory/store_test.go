package memory_test

import (
	"context"
	"errors"
	"testing"

	"eagles/internal/adapters/storage"
	"eagles/internal/adapters/storage/memory"
	"eagles/internal/adapters/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	storagetest.RunKVContract(t, memory.New())
}

func TestMemoryStore_FailureInjection(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Set(ctx, storage.KeySessions, []byte(`[]`)))

	boom := errors.New("disk full")
	s.FailReads(boom)
	_, err := s.Get(ctx, storage.KeySessions)
	assert.ErrorIs(t, err, boom)

	s.FailReads(nil)
	s.FailWrites(boom)
	assert.ErrorIs(t, s.Set(ctx, storage.KeySessions, []byte(`[1]`)), boom)
	assert.ErrorIs(t, s.Delete(ctx, storage.KeySessions), boom)

	got, err := s.Get(ctx, storage.KeySessions)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "failed write must not change stored data")
	assert.Equal(t, 2, s.SetCalls())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	value := []byte(`"abc"`)
	require.NoError(t, s.Set(ctx, "k", value))
	value[1] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[2] = 'z'

	again, _ := s.Get(ctx, "k")
	assert.Equal(t, `"abc"`, string(again))
	assert.True(t, s.Has("k"))
}
