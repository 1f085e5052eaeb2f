package service

import (
	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/pkg/tableview"
)

// Resource names accepted by the admin table endpoints.
const (
	ResourceStudents     = "students"
	ResourceCourses      = "courses"
	ResourceReports      = "reports"
	ResourceInteractions = "interactions"
)

// Students is the students table.
var Students = Resource[models.StudentStats, models.Student]{
	Name:      ResourceStudents,
	Label:     "students",
	StatsPath: "/admin/students/stats",
	ListPath:  "/admin/students",
	Fields: tableview.Fields[models.Student]{
		{Key: "name", Label: "Student", Sortable: true, Searchable: true, Value: func(s models.Student) any { return s.Name }},
		{Key: "email", Label: "Email", Sortable: true, Searchable: true, Value: func(s models.Student) any { return s.Email }},
		{Key: "courses_taken", Label: "Courses Taken", Sortable: true, Value: func(s models.Student) any { return s.CoursesTaken }},
		{Key: "total_quizzes", Label: "Total Quizzes", Sortable: true, Value: func(s models.Student) any { return s.TotalQuizzes }},
		{Key: "avg_score", Label: "Avg Score", Sortable: true, Value: func(s models.Student) any { return s.AvgScore }},
		{Key: "status", Label: "Status", Sortable: true, Value: func(s models.Student) any { return s.Status }},
		{Key: "last_active", Label: "Last Active", Sortable: true, Value: func(s models.Student) any { return s.LastActive }},
	},
	Warnings: func(s models.Student) []string {
		if s.TotalQuizzes > 0 && s.AvgScore < 50 {
			return []string{s.Name + " has an average score below 50"}
		}
		return nil
	},
}

// Courses is the courses table.
var Courses = Resource[models.CourseStats, models.Course]{
	Name:      ResourceCourses,
	Label:     "courses",
	StatsPath: "/admin/courses/stats",
	ListPath:  "/admin/courses",
	Fields: tableview.Fields[models.Course]{
		{Key: "name", Label: "Course", Sortable: true, Searchable: true, Value: func(c models.Course) any { return c.Name }},
		{Key: "level", Label: "Level", Sortable: true, Searchable: true, Value: func(c models.Course) any { return c.Level }},
		{Key: "students_enrolled", Label: "Students Enrolled", Sortable: true, Value: func(c models.Course) any { return c.StudentsEnrolled }},
		{Key: "total_questions", Label: "Total Questions", Sortable: true, Value: func(c models.Course) any { return c.TotalQuestions }},
		{Key: "avg_difficulty", Label: "Avg Difficulty", Sortable: true, Value: func(c models.Course) any { return c.AvgDifficulty }},
	},
	Warnings: func(c models.Course) []string {
		if c.StudentsEnrolled == 0 {
			return []string{c.Name + " has no enrolled students"}
		}
		return nil
	},
}

// Reports is the question reports table.
var Reports = Resource[models.ReportStats, models.QuestionReport]{
	Name:       ResourceReports,
	Label:      "reports",
	StatsPath:  "/admin/reports/stats",
	ListPath:   "/admin/reports",
	Filterable: true,
	Fields: tableview.Fields[models.QuestionReport]{
		{Key: "question_text", Label: "Question", Sortable: true, Searchable: true, Value: func(r models.QuestionReport) any { return r.QuestionText }},
		{Key: "course_name", Label: "Course", Sortable: true, Searchable: true, Value: func(r models.QuestionReport) any { return r.CourseName }},
		{Key: "reason", Label: "Reason", Sortable: true, Searchable: true, Value: func(r models.QuestionReport) any { return r.Reason }},
		{Key: "username", Label: "Reported By", Sortable: true, Searchable: true, Value: func(r models.QuestionReport) any { return r.Username }},
		{Key: "status", Label: "Status", Sortable: true, Value: func(r models.QuestionReport) any { return r.Status }},
		{Key: "reported_at", Label: "Reported At", Sortable: true, Value: func(r models.QuestionReport) any { return r.ReportedAt }},
	},
}

// Interactions is the bot interactions table.
var Interactions = Resource[models.BotStats, models.Interaction]{
	Name:      ResourceInteractions,
	Label:     "interactions",
	StatsPath: "/admin/bot/stats",
	ListPath:  "/admin/bot/interactions",
	Fields: tableview.Fields[models.Interaction]{
		{Key: "user_name", Label: "User", Sortable: true, Searchable: true, Value: func(i models.Interaction) any { return i.UserName }},
		{Key: "question_text", Label: "Question", Sortable: true, Searchable: true, Value: func(i models.Interaction) any { return i.QuestionText }},
		{Key: "course_name", Label: "Course", Sortable: true, Searchable: true, Value: func(i models.Interaction) any { return i.CourseName }},
		{Key: "is_correct", Label: "Correct", Sortable: true, Value: func(i models.Interaction) any { return i.IsCorrect }},
		{Key: "time_taken", Label: "Time Taken", Sortable: true, Value: func(i models.Interaction) any { return i.TimeTaken }},
		{Key: "timestamp", Label: "Timestamp", Sortable: true, Value: func(i models.Interaction) any { return i.Timestamp }},
	},
}
