package flow

// Progress 作答进度。Total 为 0 时 Percentage 为 0，但该话题视为已完成
type Progress struct {
	Answered   int     `json:"answered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

func TopicProgress(t Topic, store *AnswerStore) Progress {
	answered := 0
	for _, q := range t.Questions {
		if store.Answered(q.ID) {
			answered++
		}
	}

	p := Progress{Answered: answered, Total: len(t.Questions)}
	if p.Total > 0 {
		p.Percentage = float64(p.Answered) / float64(p.Total) * 100
	}
	return p
}

func OverallProgress(topics []Topic, store *AnswerStore) Progress {
	var p Progress
	for _, t := range topics {
		tp := TopicProgress(t, store)
		p.Answered += tp.Answered
		p.Total += tp.Total
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Answered) / float64(p.Total) * 100
	}
	return p
}

// TopicComplete answered == total 的等值判断，空话题天然成立
func TopicComplete(t Topic, store *AnswerStore) bool {
	p := TopicProgress(t, store)
	return p.Answered == p.Total
}

func AllTopicsCompleted(topics []Topic, store *AnswerStore) bool {
	for _, t := range topics {
		if !TopicComplete(t, store) {
			return false
		}
	}
	return true
}
