package flow

import "strconv"

// DefaultMark 自由文本题以及分值缺失/无法解析时的兜底分值
const DefaultMark = 1.0

func parseMark(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// QuestionScore 单题得分：选择题取选中选项的分值，自由文本记兜底分值。
// 选项不存在或分值解析失败同样落到兜底分值。
func QuestionScore(q Question, sel Selection) float64 {
	switch q.Type {
	case MultipleChoice, YesNo:
		for _, o := range q.Options {
			if o.ID == sel.OptionID {
				if v, ok := parseMark(o.Marks); ok {
					return v
				}
				return DefaultMark
			}
		}
		return DefaultMark
	case FreeText:
		return DefaultMark
	}
	return DefaultMark
}

// QuestionMaxScore 单题满分：选项分值的最大值，无可解析分值时为兜底分值
func QuestionMaxScore(q Question) float64 {
	switch q.Type {
	case MultipleChoice, YesNo:
		max := 0.0
		found := false
		for _, o := range q.Options {
			if v, ok := parseMark(o.Marks); ok && (!found || v > max) {
				max = v
				found = true
			}
		}
		if found {
			return max
		}
		return DefaultMark
	case FreeText:
		return DefaultMark
	}
	return DefaultMark
}

// Score 汇总总分与满分。只累计已作答的题目：提交前置条件要求全部答完，
// 两者只在中途提交时有差异，给未作答题目计兜底分会虚高成绩。
func Score(topics []Topic, store *AnswerStore) (total, max float64) {
	for _, t := range topics {
		for _, q := range t.Questions {
			sel, ok := store.Get(q.ID)
			if !ok {
				continue
			}
			total += QuestionScore(q, sel)
			max += QuestionMaxScore(q)
		}
	}
	return total, max
}
