package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerStoreLastWriteWins(t *testing.T) {
	store := NewAnswerStore()

	store.Record(1, Selection{OptionID: 10})
	store.Record(1, Selection{OptionID: 20})

	sel, ok := store.Get(1)
	assert.True(t, ok)
	assert.Equal(t, uint(20), sel.OptionID)
	assert.Equal(t, 1, store.Len())
}

func TestAnswerStoreDirtyTracking(t *testing.T) {
	store := NewAnswerStore()

	store.Record(3, Selection{Text: "c"})
	store.Record(1, Selection{Text: "a"})
	store.Record(2, Selection{Text: "b"})

	// 升序返回
	assert.Equal(t, []uint{1, 2, 3}, store.Dirty())

	store.MarkClean(2)
	assert.Equal(t, []uint{1, 3}, store.Dirty())

	store.MarkClean(1)
	store.MarkClean(3)
	assert.Empty(t, store.Dirty())
}

func TestAnswerStoreSeedRestoresWithoutDirty(t *testing.T) {
	saved := map[uint]Selection{
		11: {OptionID: 113},
		21: {Text: "free text answer"},
		99: {}, // 空作答不恢复
	}

	store := NewAnswerStore()
	store.Seed(saved)

	// 恢复后与持久化内容一致
	sel, ok := store.Get(11)
	assert.True(t, ok)
	assert.Equal(t, uint(113), sel.OptionID)

	sel, ok = store.Get(21)
	assert.True(t, ok)
	assert.Equal(t, "free text answer", sel.Text)

	assert.False(t, store.Answered(99))
	assert.Empty(t, store.Dirty())
}

func TestSelectionEmpty(t *testing.T) {
	assert.True(t, Selection{}.Empty())
	assert.True(t, Selection{Text: "   "}.Empty())
	assert.False(t, Selection{OptionID: 1}.Empty())
	assert.False(t, Selection{Text: "x"}.Empty())
}
