// Package events records catalog changes in a transactional outbox so
// downstream consumers can audit or replay administrative edits.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event describes a catalog change to store in the outbox.
type Event struct {
	Type     string
	Entity   string
	EntityID snowflake.ID
	Payload  map[string]any
}

// Row is the persisted outbox record.
type Row struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	EventType string            `gorm:"column:event_type;type:text;not null"`
	Entity    string            `gorm:"type:text;not null"`
	EntityID  snowflake.ID      `gorm:"column:entity_id;not null"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Row) TableName() string { return "catalog_events" }

// Outbox inserts catalog events into the catalog_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return errors.New("missing_event_type")
	}
	entity := strings.TrimSpace(event.Entity)
	if entity == "" {
		return errors.New("missing_event_entity")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	row := Row{
		ID:        o.genID.Generate(),
		EventType: eventType,
		Entity:    entity,
		EntityID:  event.EntityID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(&row).Error
}
