package models

// LogFile is the content of one upstream log file.
type LogFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
