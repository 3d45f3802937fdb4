package flow

import (
	"sort"
	"strings"
)

// Selection 一道题的当前作答：选中的选项ID或自由文本，二选一
type Selection struct {
	OptionID uint   `json:"optionId,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (s Selection) Empty() bool {
	return s.OptionID == 0 && strings.TrimSpace(s.Text) == ""
}

// AnswerStore questionID → 当前作答的内存映射。
// 同一题后写覆盖先写；dirty 标记记录尚未成功落库的作答。
type AnswerStore struct {
	answers map[uint]Selection
	dirty   map[uint]struct{}
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{
		answers: make(map[uint]Selection),
		dirty:   make(map[uint]struct{}),
	}
}

// Seed 从已持久化的作答重建本地状态（刷新后恢复），不产生 dirty 标记
func (a *AnswerStore) Seed(saved map[uint]Selection) {
	for qid, sel := range saved {
		if sel.Empty() {
			continue
		}
		a.answers[qid] = sel
	}
}

func (a *AnswerStore) Record(questionID uint, sel Selection) {
	a.answers[questionID] = sel
	a.dirty[questionID] = struct{}{}
}

func (a *AnswerStore) Get(questionID uint) (Selection, bool) {
	sel, ok := a.answers[questionID]
	return sel, ok
}

func (a *AnswerStore) Answered(questionID uint) bool {
	_, ok := a.answers[questionID]
	return ok
}

func (a *AnswerStore) MarkClean(questionID uint) {
	delete(a.dirty, questionID)
}

// Dirty 返回未同步的题目ID，升序，便于确定性的补偿重放
func (a *AnswerStore) Dirty() []uint {
	ids := make([]uint, 0, len(a.dirty))
	for qid := range a.dirty {
		ids = append(ids, qid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (a *AnswerStore) Len() int {
	return len(a.answers)
}

// All 返回全部作答的拷贝
func (a *AnswerStore) All() map[uint]Selection {
	out := make(map[uint]Selection, len(a.answers))
	for qid, sel := range a.answers {
		out[qid] = sel
	}
	return out
}
