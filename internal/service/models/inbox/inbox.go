package inbox

import (
	"time"
)

// InboxMessage records a consumed message id for deduplication.
type InboxMessage struct {
	ID          int64
	MessageID   string
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	CreatedAt   time.Time
}
