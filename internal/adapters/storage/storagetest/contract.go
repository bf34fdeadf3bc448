// Package storagetest holds the behavioural contract every KV backend must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eagles/internal/adapters/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVContract exercises kv against the storage.KV semantics.
func RunKVContract(t *testing.T, kv storage.KV) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Set and Get", func(t *testing.T) {
		payload := []byte(`[{"username":"Manu","stats":{"matchesPlayed":10}}]`)
		require.NoError(t, kv.Set(ctx, key, payload), "Set should not return error")

		got, err := kv.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.JSONEq(t, string(payload), string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte(`"first"`)))
		require.NoError(t, kv.Set(ctx, key, []byte(`"second"`)))

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `"second"`, string(got))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := kv.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte(`{}`)))
		require.NoError(t, kv.Delete(ctx, key), "Delete should not return error")

		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, "Get after Delete should return ErrNotFound")
	})

	t.Run("Delete Missing", func(t *testing.T) {
		assert.NoError(t, kv.Delete(ctx, "never-set-"+key))
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		a, b := key+"-a", key+"-b"
		defer func() {
			_ = kv.Delete(ctx, a)
			_ = kv.Delete(ctx, b)
		}()
		require.NoError(t, kv.Set(ctx, a, []byte(`"a"`)))
		require.NoError(t, kv.Set(ctx, b, []byte(`"b"`)))
		require.NoError(t, kv.Delete(ctx, a))

		got, err := kv.Get(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, `"b"`, string(got))
	})

	t.Run("Concurrent Writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, kv.Set(ctx, key, []byte(fmt.Sprintf(`%d`, i))))
			}(i)
		}
		wg.Wait()

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
		_ = kv.Delete(ctx, key)
	})
}
