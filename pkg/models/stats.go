package models

type DashboardStats struct {
	TotalUsers          int `json:"total_users"`
	LinkedUsers         int `json:"linked_users"`
	Interactions24h     int `json:"interactions_24h"`
	NotificationsSent   int `json:"notifications_sent_24h"`
	NotificationsFailed int `json:"notifications_failed_24h"`
	QueueDepth          int `json:"queue_depth"`
}
