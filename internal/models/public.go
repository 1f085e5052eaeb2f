package models

// PublicStats feeds the public landing page.
type PublicStats struct {
	TotalStudents         int     `json:"total_students"`
	ActiveCourses         int     `json:"active_courses"`
	CompletionRatePercent float64 `json:"completion_rate_percent"`
	AvgSessionMinutes     float64 `json:"avg_session_minutes"`
	TotalInteractions     int     `json:"total_interactions"`
	SuccessRatePercent    float64 `json:"success_rate_percent"`
}

// PublicRecentActivity is one course row on the landing page.
type PublicRecentActivity struct {
	CourseName     string `json:"course_name"`
	ActiveStudents int    `json:"active_students"`
	TrendPercent   string `json:"trend_percent"`
}
