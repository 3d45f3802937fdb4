package flow

import "errors"

var (
	ErrCompleted        = errors.New("submission already completed")
	ErrTopicsIncomplete = errors.New("all topics must be completed first")
	ErrInvalidTopic     = errors.New("topic index out of range")
	ErrEmptySelection   = errors.New("answer selection is empty")
	ErrUnknownQuestion  = errors.New("question not part of this assessment")
)

type View string

const (
	ViewTopics    View = "topics"
	ViewAnswering View = "answering"
	ViewCompleted View = "completed"
)

// State 导航位置。不变式：View 为 answering 时 TopicIndex/QuestionIndex
// 指向一个存在的题目。
type State struct {
	View          View `json:"view"`
	TopicIndex    int  `json:"topicIndex"`
	QuestionIndex int  `json:"questionIndex"`
}

func InitialState() State {
	return State{View: ViewTopics}
}

type eventKind int

const (
	evSelectTopic eventKind = iota
	evNext
	evPrevious
	evBackToTopics
	evComplete
)

type Event struct {
	kind  eventKind
	topic int
}

func SelectTopic(i int) Event { return Event{kind: evSelectTopic, topic: i} }
func Next() Event             { return Event{kind: evNext} }
func Previous() Event         { return Event{kind: evPrevious} }
func BackToTopics() Event     { return Event{kind: evBackToTopics} }
func Complete() Event         { return Event{kind: evComplete} }

// EventFromName 将接口层传入的事件名映射为导航事件
func EventFromName(name string, topicIndex int) (Event, bool) {
	switch name {
	case "select_topic":
		return SelectTopic(topicIndex), true
	case "next":
		return Next(), true
	case "previous":
		return Previous(), true
	case "back_to_topics":
		return BackToTopics(), true
	case "complete":
		return Complete(), true
	}
	return Event{}, false
}

// NormalizeState 校验导航位置在当前话题结构下仍然有效。管理端可能在
// 作答期间停用或删除话题，持久化的位置会指向已不存在的题目，这时回退
// 到话题总览，由用户重新选择。
func NormalizeState(topics []Topic, s State) State {
	if s.View != ViewAnswering {
		return s
	}
	if s.TopicIndex < 0 || s.TopicIndex >= len(topics) {
		return State{View: ViewTopics}
	}
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(topics[s.TopicIndex].Questions) {
		return State{View: ViewTopics}
	}
	return s
}

// nextTopicWithQuestions 从 from 开始按 step 方向找第一个有题目的话题
func nextTopicWithQuestions(topics []Topic, from, step int) (int, bool) {
	for i := from; i >= 0 && i < len(topics); i += step {
		if len(topics[i].Questions) > 0 {
			return i, true
		}
	}
	return 0, false
}

// Apply 纯转移函数 (state, event) -> state。越界导航是显式的 no-op，
// completed 状态吞掉一切后续事件。
func Apply(topics []Topic, store *AnswerStore, s State, ev Event) (State, error) {
	if s.View == ViewCompleted {
		return s, nil
	}
	s = NormalizeState(topics, s)

	switch ev.kind {
	case evSelectTopic:
		if ev.topic < 0 || ev.topic >= len(topics) {
			return s, ErrInvalidTopic
		}
		// 空话题没有可作答内容，停留在总览
		if len(topics[ev.topic].Questions) == 0 {
			return s, nil
		}
		return State{View: ViewAnswering, TopicIndex: ev.topic}, nil

	case evNext:
		if s.View != ViewAnswering {
			return s, nil
		}
		t := topics[s.TopicIndex]
		if s.QuestionIndex+1 < len(t.Questions) {
			return State{View: ViewAnswering, TopicIndex: s.TopicIndex, QuestionIndex: s.QuestionIndex + 1}, nil
		}
		if i, ok := nextTopicWithQuestions(topics, s.TopicIndex+1, 1); ok {
			return State{View: ViewAnswering, TopicIndex: i}, nil
		}
		// 最后一个话题的最后一题：no-op，由界面转向提交动作
		return s, nil

	case evPrevious:
		if s.View != ViewAnswering {
			return s, nil
		}
		if s.QuestionIndex > 0 {
			return State{View: ViewAnswering, TopicIndex: s.TopicIndex, QuestionIndex: s.QuestionIndex - 1}, nil
		}
		if i, ok := nextTopicWithQuestions(topics, s.TopicIndex-1, -1); ok {
			return State{View: ViewAnswering, TopicIndex: i, QuestionIndex: len(topics[i].Questions) - 1}, nil
		}
		return s, nil

	case evBackToTopics:
		return State{View: ViewTopics}, nil

	case evComplete:
		if !AllTopicsCompleted(topics, store) {
			return s, ErrTopicsIncomplete
		}
		return State{View: ViewCompleted}, nil
	}

	return s, nil
}
