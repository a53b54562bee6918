package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLrukList(t *testing.T) {
	t.Run("push front orders newest first", func(t *testing.T) {
		l := newLrukList()
		l.pushFront(&lrukNode{frameID: 1})
		l.pushFront(&lrukNode{frameID: 2})
		l.pushFront(&lrukNode{frameID: 3})

		assert.Equal(t, []int{3, 2, 1}, l.toSlice())
	})

	t.Run("remove splices a node out", func(t *testing.T) {
		l := newLrukList()
		n1 := &lrukNode{frameID: 1}
		n2 := &lrukNode{frameID: 2}
		n3 := &lrukNode{frameID: 3}
		l.pushFront(n1)
		l.pushFront(n2)
		l.pushFront(n3)

		l.remove(n2)
		assert.Equal(t, []int{3, 1}, l.toSlice())
	})

	t.Run("findFromBack returns the oldest match", func(t *testing.T) {
		l := newLrukList()
		l.pushFront(&lrukNode{frameID: 1, evictable: true})
		l.pushFront(&lrukNode{frameID: 2, evictable: false})
		l.pushFront(&lrukNode{frameID: 3, evictable: true})

		found := l.findFromBack(func(n *lrukNode) bool { return n.evictable })
		assert.Equal(t, 1, found.frameID)
	})

	t.Run("findFromBack returns nil when nothing matches", func(t *testing.T) {
		l := newLrukList()
		l.pushFront(&lrukNode{frameID: 1})

		assert.Nil(t, l.findFromBack(func(n *lrukNode) bool { return n.evictable }))
	})
}
