package model

// 题型标签，流程引擎中有对应的封闭类型（flow.QuestionType）
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionYesNo          = "yes_no"
	QuestionFreeText       = "free_text"
)

// swagger:model Assessment
type Assessment struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
	OwnerID     uint   `gorm:"index" json:"ownerId"`
}

func (Assessment) TableName() string {
	return "assessments"
}

type Topic struct {
	BaseModel
	AssessmentID uint   `gorm:"index;not null" json:"assessmentId"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Sequence     int    `gorm:"default:0" json:"sequence"`
	IsActive     bool   `gorm:"default:true" json:"isActive"`
}

func (Topic) TableName() string {
	return "topics"
}

type Question struct {
	BaseModel
	TopicID    uint   `gorm:"index;not null" json:"topicId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	Type       string `gorm:"size:50;not null;default:'multiple_choice'" json:"type"`
	Sequence   int    `gorm:"default:0" json:"sequence"`
	IsActive   bool   `gorm:"default:true" json:"isActive"`
	Attachment string `gorm:"size:255" json:"attachment,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// AnswerOption 选项分值以文本存储，空串表示未计分
type AnswerOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	Marks      string `gorm:"size:20" json:"marks"`
	IsCorrect  *bool  `json:"isCorrect,omitempty"`
	Comment    string `gorm:"type:text" json:"comment,omitempty"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
