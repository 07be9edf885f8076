package amqp

import (
	"encoding/json"
	"time"
)

// OutboxNudgeMessage tells the sync worker that a user produced new outbox
// entries. It is a wake-up call, not a payload carrier: the worker always
// reads the authoritative items from the local queue.
type OutboxNudgeMessage struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOutboxNudgeMessage(userID string) *OutboxNudgeMessage {
	return &OutboxNudgeMessage{
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *OutboxNudgeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OutboxNudgeMessageFromJSON(data []byte) (*OutboxNudgeMessage, error) {
	var msg OutboxNudgeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
