package flow

func boolPtr(b bool) *bool { return &b }

// 两个话题：A 两道选择题，B 一道自由文本题
func sampleTopics() []Topic {
	return []Topic{
		{
			ID: 1, Title: "Topic A", Sequence: 1,
			Questions: []Question{
				{
					ID: 11, Text: "A.q1", Type: MultipleChoice, Sequence: 1,
					Options: []Option{
						{ID: 111, Text: "one", Marks: "1"},
						{ID: 112, Text: "two", Marks: "2"},
						{ID: 113, Text: "three", Marks: "3"},
						{ID: 114, Text: "four", Marks: "4"},
						{ID: 115, Text: "five", Marks: "5", IsCorrect: boolPtr(true)},
					},
				},
				{
					ID: 12, Text: "A.q2", Type: YesNo, Sequence: 2,
					Options: []Option{
						{ID: 121, Text: "Yes", Marks: "2", IsCorrect: boolPtr(true)},
						{ID: 122, Text: "No", Marks: "0"},
					},
				},
			},
		},
		{
			ID: 2, Title: "Topic B", Sequence: 2,
			Questions: []Question{
				{ID: 21, Text: "B.q1", Type: FreeText, Sequence: 1},
			},
		},
	}
}

func answeredStore(questionIDs ...uint) *AnswerStore {
	store := NewAnswerStore()
	for _, qid := range questionIDs {
		store.Record(qid, Selection{Text: "x"})
		store.MarkClean(qid)
	}
	return store
}
