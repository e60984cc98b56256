// Package kvtest checks that a kv.Store implementation behaves like the others.
package kvtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/storage/kv"
)

// Run runs the conformance suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "attendanceRecords")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "attendanceRecords", []byte(`{"2025-11-03":{"101":"Present"}}`)))
		got, err := s.Get(ctx, "attendanceRecords")
		require.NoError(t, err)
		assert.JSONEq(t, `{"2025-11-03":{"101":"Present"}}`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", []byte("first")))
		require.NoError(t, s.Set(ctx, "k", []byte("second")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", []byte("v")))
		require.NoError(t, s.Delete(ctx, "k"))
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, kv.ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "k"), "deleting a missing key")
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		s := newStore(t)
		val := []byte("abc")
		require.NoError(t, s.Set(ctx, "k", val))
		val[0] = 'x'
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
		got[0] = 'y'
		again, _ := s.Get(ctx, "k")
		assert.Equal(t, "abc", string(again))
	})

	t.Run("namespace", func(t *testing.T) {
		s := newStore(t)
		a, b := kv.Namespace(s, "session:a:"), kv.Namespace(s, "session:b:")
		require.NoError(t, a.Set(ctx, "userRole", []byte("admin")))
		_, err := b.Get(ctx, "userRole")
		assert.ErrorIs(t, err, kv.ErrNotFound)
		got, err := s.Get(ctx, "session:a:userRole")
		require.NoError(t, err)
		assert.Equal(t, "admin", string(got))
		require.NoError(t, a.Close())
		_, err = s.Get(ctx, "session:a:userRole")
		assert.NoError(t, err, "closing a namespace keeps the store open")
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Set(ctx, fmt.Sprintf("k%d", i), []byte{byte(i)}))
			}(i)
		}
		wg.Wait()
		for i := 0; i < 8; i++ {
			got, err := s.Get(ctx, fmt.Sprintf("k%d", i))
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(i)}, got)
		}
	})
}
