package models

// BotStats aggregates bot answer quality.
type BotStats struct {
	AvgResponseTime float64 `json:"avg_response_time"`
	AccuracyRate    float64 `json:"accuracy_rate"`
}

// Interaction is one row of the bot interactions table.
type Interaction struct {
	ID           int     `json:"id" validate:"gte=0"`
	UserName     string  `json:"user_name" validate:"required"`
	QuestionText string  `json:"question_text" validate:"required"`
	CourseName   string  `json:"course_name"`
	IsCorrect    bool    `json:"is_correct"`
	TimeTaken    float64 `json:"time_taken" validate:"gte=0"`
	Timestamp    string  `json:"timestamp"`
}
