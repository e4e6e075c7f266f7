package amqp

import (
	"encoding/json"
	"time"
)

// Collection names mirrored from the document store.
const (
	CollectionTransactions      = "transactions"
	CollectionRecurringExpenses = "recurringExpenses"
	CollectionAccounts          = "accounts"
)

// ChangeMessage notifies that one of a user's collections changed. Consumers
// refetch the full snapshot and re-run materialization; the message carries
// no delta.
type ChangeMessage struct {
	UserID     string    `json:"user_id"`
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change notification for a user's collection.
func NewChangeMessage(userID, collection string) *ChangeMessage {
	return &ChangeMessage{
		UserID:     userID,
		Collection: collection,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
