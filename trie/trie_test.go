package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrie(t *testing.T) {
	t.Run("get on an empty trie is absent", func(t *testing.T) {
		var tr Trie[int]
		_, ok := tr.Get([]byte("missing"))
		assert.False(t, ok)
		assert.True(t, tr.IsEmpty())
	})

	t.Run("put then get round-trips the value", func(t *testing.T) {
		var tr Trie[int]
		t2 := tr.Put([]byte("ab"), 1)

		got, ok := t2.Get([]byte("ab"))
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("old tries are unaffected by new operations", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte("ab"), 1)
		t2 := t1.Put([]byte("ac"), 2)

		_, ok := t1.Get([]byte("ac"))
		assert.False(t, ok)

		got, ok := t2.Get([]byte("ab"))
		assert.True(t, ok)
		assert.Equal(t, 1, got)

		got, ok = t2.Get([]byte("ac"))
		assert.True(t, ok)
		assert.Equal(t, 2, got)
	})

	t.Run("put overwrites an existing value without disturbing siblings", func(t *testing.T) {
		var tr Trie[string]
		t1 := tr.Put([]byte("cat"), "meow")
		t2 := t1.Put([]byte("car"), "vroom")
		t3 := t2.Put([]byte("cat"), "purr")

		got, ok := t3.Get([]byte("cat"))
		assert.True(t, ok)
		assert.Equal(t, "purr", got)

		got, ok = t3.Get([]byte("car"))
		assert.True(t, ok)
		assert.Equal(t, "vroom", got)

		got, ok = t2.Get([]byte("cat"))
		assert.True(t, ok)
		assert.Equal(t, "meow", got)
	})

	t.Run("put then remove then get is absent", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte("ab"), 1)
		t2 := t1.Remove([]byte("ab"))

		_, ok := t2.Get([]byte("ab"))
		assert.False(t, ok)

		got, ok := t1.Get([]byte("ab"))
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("remove on an absent key is a harmless no-op", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte("ab"), 1)
		t2 := t1.Remove([]byte("zz"))

		got, ok := t2.Get([]byte("ab"))
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("removing a key preserves its children's other values", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte("a"), 1)
		t2 := t1.Put([]byte("ab"), 2)
		t3 := t2.Remove([]byte("a"))

		_, ok := t3.Get([]byte("a"))
		assert.False(t, ok)

		got, ok := t3.Get([]byte("ab"))
		assert.True(t, ok)
		assert.Equal(t, 2, got)
	})

	t.Run("removing every key empties the trie", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte("x"), 1)
		t2 := t1.Remove([]byte("x"))

		assert.True(t, t2.IsEmpty())
	})

	t.Run("empty key is a valid terminal", func(t *testing.T) {
		var tr Trie[int]
		t1 := tr.Put([]byte{}, 42)

		got, ok := t1.Get([]byte{})
		assert.True(t, ok)
		assert.Equal(t, 42, got)
	})
}
