package models

// CourseStats aggregates the course catalogue.
type CourseStats struct {
	TotalCourses      int     `json:"total_courses"`
	ActiveCourses     int     `json:"active_courses"`
	TotalEnrollment   int     `json:"total_enrollment"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
}

// Course is one row of the courses table.
type Course struct {
	ID               int     `json:"id" validate:"gte=0"`
	Name             string  `json:"name" validate:"required,min=3"`
	Level            string  `json:"level" validate:"required"`
	StudentsEnrolled int     `json:"students_enrolled" validate:"gte=0"`
	TotalQuestions   int     `json:"total_questions" validate:"gte=0"`
	AvgDifficulty    float64 `json:"avg_difficulty" validate:"gte=0"`
}
