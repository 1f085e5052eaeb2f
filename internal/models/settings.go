package models

// Settings is the admin settings form.
type Settings struct {
	SiteName          string `json:"siteName"`
	SiteDescription   string `json:"siteDescription"`
	MaintenanceMode   bool   `json:"maintenanceMode"`
	AllowRegistration bool   `json:"allowRegistration"`

	BotResponseTime      string `json:"botResponseTime"`
	BotAccuracyThreshold int    `json:"botAccuracyThreshold"`
	EnableBotLearning    bool   `json:"enableBotLearning"`
	BotPersonality       string `json:"botPersonality"`

	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	WeeklyReports      bool `json:"weeklyReports"`
	AlertThreshold     int  `json:"alertThreshold"`

	SessionTimeout    int  `json:"sessionTimeout"`
	PasswordMinLength int  `json:"passwordMinLength"`
	RequireTwoFactor  bool `json:"requireTwoFactor"`
	MaxLoginAttempts  int  `json:"maxLoginAttempts"`
}

// DefaultSettings are the values a fresh gateway starts with.
func DefaultSettings() Settings {
	return Settings{
		SiteName:             "UMaT Adaptive Learning Platform",
		SiteDescription:      "Advanced AI-powered learning analytics platform",
		AllowRegistration:    true,
		BotResponseTime:      "fast",
		BotAccuracyThreshold: 85,
		EnableBotLearning:    true,
		BotPersonality:       "professional",
		EmailNotifications:   true,
		WeeklyReports:        true,
		AlertThreshold:       90,
		SessionTimeout:       30,
		PasswordMinLength:    8,
		MaxLoginAttempts:     5,
	}
}

// SystemStatus reports upstream component health.
type SystemStatus struct {
	DatabaseStatus string `json:"database_status"`
	APIStatus      string `json:"api_status"`
}
