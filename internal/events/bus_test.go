package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []Event
}

func (m *memStore) InsertEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (*Event, error) {
	ev := Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
	m.events = append(m.events, ev)
	return &ev, nil
}

type captureNotifier struct {
	seen []Event
}

func (c *captureNotifier) Notify(_ context.Context, ev Event) error {
	c.seen = append(c.seen, ev)
	return nil
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &captureNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	cartID := uuid.New()
	err := bus.Emit(context.Background(), TopicCouponApplied, cartID, map[string]string{"code": "save10"})
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	require.Equal(t, TopicCouponApplied, store.events[0].Topic)
	require.Equal(t, cartID, store.events[0].AggregateID)
	require.JSONEq(t, `{"code":"save10"}`, string(store.events[0].Payload))
	require.Len(t, notifier.seen, 1)
}

func TestEmitValidation(t *testing.T) {
	bus := &Bus{Store: &memStore{}}

	require.Error(t, bus.Emit(context.Background(), "  ", uuid.New(), nil))
	require.Error(t, bus.Emit(context.Background(), TopicCartCleared, uuid.Nil, nil))
	require.Error(t, bus.Emit(context.Background(), TopicCartCleared, uuid.New(), json.RawMessage("{broken")))
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	require.NoError(t, bus.Emit(context.Background(), TopicCartCleared, uuid.New(), nil))
}

func TestEmitNilPayloadDefaultsToEmptyObject(t *testing.T) {
	store := &memStore{}
	bus := &Bus{Store: store}

	require.NoError(t, bus.Emit(context.Background(), TopicCartItemAdded, uuid.New(), nil))
	require.JSONEq(t, `{}`, string(store.events[0].Payload))
}
