package models

// DashboardStat is one dashboard card.
type DashboardStat struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Change      string `json:"change,omitempty"`
	Trend       string `json:"trend,omitempty"`
	Description string `json:"description,omitempty"`
}

// ActivityUser identifies the actor of a RecentActivity.
type ActivityUser struct {
	Name          string `json:"name"`
	AvatarInitial string `json:"avatar_initial"`
}

// RecentActivity is one entry of the admin activity feed.
type RecentActivity struct {
	ID        string       `json:"id"`
	User      ActivityUser `json:"user"`
	Action    string       `json:"action"`
	Timestamp string       `json:"timestamp"`
}
