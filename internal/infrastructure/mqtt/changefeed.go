package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Change operations published on the feed.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLink   = "link"
	OpImport = "import"
)

// Publisher is the subset of Client the change feed needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Change is the JSON payload of one change-feed message.
type Change struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Op    string `json:"op"`
	At    string `json:"at"`
}

// ChangeFeed publishes a message for every successful record mutation.
// Payloads carry identifiers only, never record contents.
type ChangeFeed struct {
	pub    Publisher
	topics Topics
	qos    byte
	now    func() time.Time
}

// NewChangeFeed creates a ChangeFeed publishing through pub.
func NewChangeFeed(pub Publisher, prefix string, qos byte) *ChangeFeed {
	return &ChangeFeed{
		pub:    pub,
		topics: Topics{Prefix: prefix},
		qos:    qos,
		now:    time.Now,
	}
}

// NotifyChange publishes {table,id,op,at} to <prefix>/changes/<table>.
func (f *ChangeFeed) NotifyChange(ctx context.Context, table, id, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publishing change: %w", err)
	}

	payload, err := json.Marshal(Change{
		Table: table,
		ID:    id,
		Op:    op,
		At:    f.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding change: %w", err)
	}

	if err := f.pub.Publish(f.topics.Changes(table), payload, f.qos, false); err != nil {
		return fmt.Errorf("publishing change: %w", err)
	}
	return nil
}
