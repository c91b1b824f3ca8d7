package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue. The worker renders
// Template with Data and delivers the result to To.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}
