package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/events"
)

// EventRepo appends to the domain event log.
type EventRepo struct {
	db DBTX
}

// InsertEvent records one domain event.
func (r *EventRepo) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (*events.Event, error) {
	var ev events.Event
	err := r.db.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		uuid.New(), topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("insert domain event: %w", err)
	}
	return &ev, nil
}

// ListEvents returns recent events for a topic, newest first. An empty topic
// lists across all topics.
func (r *EventRepo) ListEvents(ctx context.Context, topic string, limit, offset int) ([]events.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE ($1 = '' OR topic = $1)
		ORDER BY occurred_at DESC, id
		LIMIT $2 OFFSET $3`, topic, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list domain events: %w", err)
	}
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		var ev events.Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
