package models

// CardModel is a single reflective card in the deck.
type CardModel struct {
	Base
	Slug     string `json:"slug"     gorm:"uniqueIndex;size:191;not null"`
	Title    string `json:"title"    gorm:"not null"`
	Prompt   string `json:"prompt"   gorm:"type:text"`
	Category string `json:"category" gorm:"index"`
	Sort     int    `json:"sort"`
}

func (CardModel) TableName() string { return "cards" }

// QuestionModel is a guiding question shown alongside a selected card.
type QuestionModel struct {
	Base
	Text  string `json:"text"  gorm:"type:text;not null"`
	Stage string `json:"stage" gorm:"index"`
	Sort  int    `json:"sort"`
}

func (QuestionModel) TableName() string { return "questions" }

// StatementModel is a closing statement offered at the end of a reflection.
type StatementModel struct {
	Base
	Text string `json:"text" gorm:"type:text;not null"`
	Sort int    `json:"sort"`
}

func (StatementModel) TableName() string { return "statements" }
