package flow

import "sort"

// QuestionType 封闭题型，评分和渲染处做穷尽匹配
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	YesNo          QuestionType = "yes_no"
	FreeText       QuestionType = "free_text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, YesNo, FreeText:
		return true
	}
	return false
}

// HasOptions 自由文本题不携带可选项
func (t QuestionType) HasOptions() bool {
	return t == MultipleChoice || t == YesNo
}

// Option 选项分值以文本存储，空串表示未计分
type Option struct {
	ID        uint
	Text      string
	Marks     string
	IsCorrect *bool
	Comment   string
}

type Question struct {
	ID       uint
	Text     string
	Type     QuestionType
	Sequence int
	Options  []Option
}

type Topic struct {
	ID          uint
	Title       string
	Description string
	Sequence    int
	Questions   []Question
}

// SortTopics 按 sequence 排序，并列时按ID（即创建顺序）稳定消歧
func SortTopics(topics []Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Sequence != topics[j].Sequence {
			return topics[i].Sequence < topics[j].Sequence
		}
		return topics[i].ID < topics[j].ID
	})
	for t := range topics {
		qs := topics[t].Questions
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Sequence != qs[j].Sequence {
				return qs[i].Sequence < qs[j].Sequence
			}
			return qs[i].ID < qs[j].ID
		})
	}
}
