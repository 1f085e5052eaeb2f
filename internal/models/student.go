package models

// StudentStats aggregates the student population.
type StudentStats struct {
	TotalStudents  int     `json:"total_students"`
	ActiveStudents int     `json:"active_students"`
	CompletionRate float64 `json:"completion_rate"`
	AvgGPA         float64 `json:"avg_gpa"`
}

// Student is one row of the students table.
type Student struct {
	ID           int     `json:"id" validate:"gte=0"`
	Name         string  `json:"name" validate:"required,min=2"`
	Email        string  `json:"email" validate:"required,email"`
	LastActive   string  `json:"last_active"`
	Status       string  `json:"status" validate:"required"`
	CoursesTaken int     `json:"courses_taken" validate:"gte=0"`
	TotalQuizzes int     `json:"total_quizzes" validate:"gte=0"`
	AvgScore     float64 `json:"avg_score" validate:"gte=0,lte=100"`
}
