package models

// Report statuses.
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
	// ReportStatusAll disables the status filter.
	ReportStatusAll = "all"
)

// MostReportedQuestion is one entry of ReportStats.
type MostReportedQuestion struct {
	QuestionID   int    `json:"question_id"`
	QuestionText string `json:"question_text"`
	CourseName   string `json:"course_name"`
	ReportCount  int    `json:"report_count"`
}

// ReportStats aggregates question reports.
type ReportStats struct {
	TotalReports          int                    `json:"total_reports"`
	OpenReports           int                    `json:"open_reports"`
	ClosedReports         int                    `json:"closed_reports"`
	MostReportedQuestions []MostReportedQuestion `json:"most_reported_questions"`
}

// QuestionReport is one row of the reports table.
type QuestionReport struct {
	ID           int     `json:"id" validate:"gte=0"`
	QuestionID   int     `json:"question_id"`
	UserID       int     `json:"user_id"`
	Username     *string `json:"username"`
	Reason       string  `json:"reason" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=open resolved dismissed"`
	ReportedAt   string  `json:"reported_at"`
	QuestionText string  `json:"question_text" validate:"required"`
	CourseName   string  `json:"course_name"`
}

// UpdateReportStatusRequest is the only mutation a report accepts.
type UpdateReportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=resolved dismissed"`
}
