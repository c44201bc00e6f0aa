// Package storetest holds the behavior every core.DocumentStore must share.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"json-storage/core"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store from newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) core.DocumentStore) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t)
		values := map[string]string{
			"object": `{"name":"ann","tags":["a","b"],"nested":{"n":1.5,"ok":true,"nil":null}}`,
			"array":  `[1,2,3]`,
			"string": `"hello"`,
			"number": `42`,
			"empty":  `{}`,
		}
		for id, v := range values {
			got, err := s.Create(ctx, &core.Document{ID: id, Data: json.RawMessage(v)})
			require.NoError(t, err)
			assert.Equal(t, id, got)

			doc, err := s.FindID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, doc.ID)
			assert.JSONEq(t, v, string(doc.Data))
		}
	})

	t.Run("DeleteThenRead", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "gone", Data: json.RawMessage(`{"a":1}`)})
		require.NoError(t, err)

		id, err := s.Delete(ctx, "gone")
		require.NoError(t, err)
		assert.Equal(t, "gone", id)

		_, err = s.FindID(ctx, "gone")
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = s.Delete(ctx, "gone")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(ctx, &core.Document{ID: "missing", Data: json.RawMessage(`{"a":1}`)})
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = s.FindID(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdateOverwrites", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "doc", Data: json.RawMessage(`{"v":1,"only_in_first":true}`)})
		require.NoError(t, err)
		id, err := s.Update(ctx, &core.Document{ID: "doc", Data: json.RawMessage(`{"v":2}`)})
		require.NoError(t, err)
		assert.Equal(t, "doc", id)

		doc, err := s.FindID(ctx, "doc")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(doc.Data))
	})

	t.Run("DuplicateCreate", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "dup", Data: json.RawMessage(`{"v":1}`)})
		require.NoError(t, err)
		_, err = s.Create(ctx, &core.Document{ID: "dup", Data: json.RawMessage(`{"v":2}`)})
		assert.ErrorIs(t, err, core.ErrAlreadyExists)

		doc, err := s.FindID(ctx, "dup")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(doc.Data))
	})

	t.Run("IsolationAcrossIDs", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "A", Data: json.RawMessage(`{"who":"a"}`)})
		require.NoError(t, err)
		_, err = s.Create(ctx, &core.Document{ID: "B", Data: json.RawMessage(`{"who":"b"}`)})
		require.NoError(t, err)

		_, err = s.Update(ctx, &core.Document{ID: "A", Data: json.RawMessage(`{"who":"a2"}`)})
		require.NoError(t, err)
		_, err = s.Delete(ctx, "A")
		require.NoError(t, err)

		doc, err := s.FindID(ctx, "B")
		require.NoError(t, err)
		assert.JSONEq(t, `{"who":"b"}`, string(doc.Data))
	})

	t.Run("Scenario", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "user1", Data: json.RawMessage(`{"name":"ann"}`)})
		require.NoError(t, err)

		doc, err := s.FindID(ctx, "user1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"ann"}`, string(doc.Data))

		_, err = s.Create(ctx, &core.Document{ID: "user1", Data: json.RawMessage(`{"name":"other"}`)})
		assert.ErrorIs(t, err, core.ErrAlreadyExists)

		_, err = s.Update(ctx, &core.Document{ID: "user1", Data: json.RawMessage(`{"name":"bob"}`)})
		require.NoError(t, err)
		doc, err = s.FindID(ctx, "user1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"bob"}`, string(doc.Data))

		_, err = s.Delete(ctx, "user1")
		require.NoError(t, err)
		_, err = s.FindID(ctx, "user1")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`, "with space"} {
			_, err := s.Create(ctx, &core.Document{ID: id, Data: json.RawMessage(`{}`)})
			assert.ErrorIs(t, err, core.ErrInvalidID, "create %q", id)
			_, err = s.FindID(ctx, id)
			assert.ErrorIs(t, err, core.ErrInvalidID, "read %q", id)
			_, err = s.Delete(ctx, id)
			assert.ErrorIs(t, err, core.ErrInvalidID, "delete %q", id)
		}
		_, err := s.Create(ctx, &core.Document{ID: "bad", Data: json.RawMessage(`{"a":`)})
		assert.ErrorIs(t, err, core.ErrInvalidData)
		_, err = s.Create(ctx, &core.Document{ID: "bad"})
		assert.ErrorIs(t, err, core.ErrInvalidData)
		_, err = s.FindID(ctx, "bad")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		s := newStore(t)
		const writers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Create(ctx, &core.Document{ID: "race", Data: json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i))})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case assert.ErrorIs(t, err, core.ErrAlreadyExists):
					conflicts++
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, successes)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("ConcurrentUpdateSameID", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, &core.Document{ID: "shared", Data: json.RawMessage(`{"writer":-1}`)})
		require.NoError(t, err)

		payloads := SizedPayloads(32)
		written := make([]bool, len(payloads))
		var wg sync.WaitGroup
		for i, p := range payloads {
			wg.Add(1)
			go func(i int, p string) {
				defer wg.Done()
				_, err := s.Update(ctx, &core.Document{ID: "shared", Data: json.RawMessage(p)})
				// Optimistic backends may refuse a racing write; they must
				// never merge two.
				if err != nil {
					assert.ErrorIs(t, err, core.ErrConcurrentWrite)
					return
				}
				written[i] = true
			}(i, p)
		}
		wg.Wait()

		doc, err := s.FindID(ctx, "shared")
		require.NoError(t, err)
		require.True(t, json.Valid(doc.Data))
		winner := -1
		for i, p := range payloads {
			if written[i] && string(doc.Data) == p {
				winner = i
			}
		}
		assert.NotEqual(t, -1, winner, "stored content must be exactly one acknowledged update")
	})

	t.Run("ConcurrentDistinctIDs", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("doc-%d", i)
				_, err := s.Create(ctx, &core.Document{ID: id, Data: json.RawMessage(`{"v":0}`)})
				assert.NoError(t, err)
				_, err = s.Update(ctx, &core.Document{ID: id, Data: json.RawMessage(fmt.Sprintf(`{"v":%d}`, i))})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		for i := 0; i < 16; i++ {
			doc, err := s.FindID(ctx, fmt.Sprintf("doc-%d", i))
			require.NoError(t, err)
			assert.JSONEq(t, fmt.Sprintf(`{"v":%d}`, i), string(doc.Data))
		}
	})
}

// SizedPayloads returns n compact JSON objects of strictly increasing
// length, so a torn write of two of them is never equal to either.
func SizedPayloads(n int) []string {
	payloads := make([]string, n)
	for i := range payloads {
		payloads[i] = fmt.Sprintf(`{"writer":%d,"pad":"%s"}`, i, strings.Repeat("x", (i+1)*1024))
	}
	return payloads
}
