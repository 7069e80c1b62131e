package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	tr := New().Put("hello", uint32(1)).Put("help", uint32(2))

	v, ok := Get[uint32](tr, "hello")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)

	v, ok = Get[uint32](tr, "help")
	require.True(t, ok)
	assert.Equal(t, uint32(2), v)

	_, ok = Get[uint32](tr, "hel")
	assert.False(t, ok, "prefix node carries no value")
	_, ok = Get[uint32](tr, "helped")
	assert.False(t, ok)
	_, ok = Get[uint32](New(), "anything")
	assert.False(t, ok)
}

func TestEmptyKeyAddressesRoot(t *testing.T) {
	t.Parallel()

	tr := New().Put("", uint32(5))
	v, ok := Get[uint32](tr, "")
	require.True(t, ok)
	assert.Equal(t, uint32(5), v)

	// Root value coexists with children.
	tr = tr.Put("a", uint32(7))
	v, ok = Get[uint32](tr, "")
	require.True(t, ok)
	assert.Equal(t, uint32(5), v)

	tr = tr.Remove("")
	_, ok = Get[uint32](tr, "")
	assert.False(t, ok)
	v, ok = Get[uint32](tr, "a")
	require.True(t, ok)
	assert.Equal(t, uint32(7), v)
}

func TestPutLeavesOriginalUnchanged(t *testing.T) {
	t.Parallel()

	t1 := New().Put("a", uint32(1))
	t2 := t1.Put("ab", uint32(2))

	_, ok := Get[uint32](t1, "ab")
	assert.False(t, ok, "older version must not see the newer key")

	v, ok := Get[uint32](t2, "a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)

	// Nodes off the mutation path are shared, not copied.
	t3 := t2.Put("xy", uint32(9))
	assert.Same(t, t2.root.children['a'].children['b'], t3.root.children['a'].children['b'])
}

func TestRemove(t *testing.T) {
	t.Parallel()

	tr := New().Put("a", uint32(1)).Put("ab", uint32(2))

	removed := tr.Remove("a")
	_, ok := Get[uint32](removed, "a")
	assert.False(t, ok)
	v, ok := Get[uint32](removed, "ab")
	require.True(t, ok)
	assert.Equal(t, uint32(2), v)

	// The original is untouched.
	v, ok = Get[uint32](tr, "a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)
}

func TestRemoveElidesEmptyNodes(t *testing.T) {
	t.Parallel()

	tr := New().Put("a", uint32(1)).Put("abc", uint32(2))

	// Removing "abc" strips the now-empty "ab" and "abc" nodes, but "a"
	// stays because it carries a value.
	removed := tr.Remove("abc")
	require.NotNil(t, removed.root)
	assert.Empty(t, removed.root.children['a'].children)

	v, ok := Get[uint32](removed, "a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)
}

func TestRemoveLastKeyEmptiesRoot(t *testing.T) {
	t.Parallel()

	tr := New().Put("ab", uint32(1)).Remove("ab")
	assert.Nil(t, tr.root)
}

func TestRemoveAbsentReturnsSameTrie(t *testing.T) {
	t.Parallel()

	tr := New().Put("a", uint32(1)).Put("ab", uint32(2))

	assert.Same(t, tr.root, tr.Remove("zz").root)
	assert.Same(t, tr.root, tr.Remove("abc").root)
	assert.Same(t, tr.root, tr.Remove("b").root)
	// "ab" fully matches a node, but an intermediate without a value is not
	// a stored key.
	deep := New().Put("abc", uint32(3))
	assert.Same(t, deep.root, deep.Remove("ab").root)
}

func TestGetTypeMismatch(t *testing.T) {
	t.Parallel()

	tr := New().Put("k", "a string")

	_, ok := Get[uint64](tr, "k")
	assert.False(t, ok, "stored type differs from requested type")

	v, ok := Get[string](tr, "k")
	require.True(t, ok)
	assert.Equal(t, "a string", v)

	// Replacing the value with a different type works; the old type no
	// longer matches.
	tr = tr.Put("k", uint64(42))
	_, ok = Get[string](tr, "k")
	assert.False(t, ok)
	n, ok := Get[uint64](tr, "k")
	require.True(t, ok)
	assert.Equal(t, uint64(42), n)
}

func TestPutPreservesChildren(t *testing.T) {
	t.Parallel()

	tr := New().Put("ab", uint32(2)).Put("a", uint32(1))

	v, ok := Get[uint32](tr, "ab")
	require.True(t, ok)
	assert.Equal(t, uint32(2), v)
	v, ok = Get[uint32](tr, "a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)
}

func TestPutGetRemoveLaw(t *testing.T) {
	t.Parallel()

	tr := New()
	keys := []string{"", "a", "ab", "abc", "b", "ba", "xyz"}
	for i, k := range keys {
		tr = tr.Put(k, uint64(i))
	}
	for i, k := range keys {
		v, ok := Get[uint64](tr, k)
		require.True(t, ok, "key %q", k)
		assert.Equal(t, uint64(i), v)
	}
	for _, k := range keys {
		tr = tr.Remove(k)
		_, ok := Get[uint64](tr, k)
		assert.False(t, ok, "key %q still present after removal", k)
	}
	assert.Nil(t, tr.root)
}
