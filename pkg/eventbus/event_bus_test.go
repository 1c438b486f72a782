package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessinsight/accessinsight/pkg/eventbus"
)

type importedEvent struct {
	Rows int
}

type clearedEvent struct{}

func newTestBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func TestEventBus_PublishDispatchesByType(t *testing.T) {
	bus := newTestBus()

	var gotImported []importedEvent
	var gotCleared int
	bus.Subscribe(func(e importedEvent) {
		gotImported = append(gotImported, e)
	})
	bus.Subscribe(func(e clearedEvent) {
		gotCleared++
	})

	bus.Publish(importedEvent{Rows: 7})
	bus.Publish(importedEvent{Rows: 3})
	bus.Publish(clearedEvent{})

	require.Len(t, gotImported, 2)
	assert.Equal(t, 7, gotImported[0].Rows)
	assert.Equal(t, 3, gotImported[1].Rows)
	assert.Equal(t, 1, gotCleared)
}

func TestEventBus_PanicInHandlerDoesNotPropagate(t *testing.T) {
	bus := newTestBus()
	bus.Subscribe(func(e importedEvent) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(importedEvent{Rows: 1})
	})
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := newTestBus()

	calls := 0
	handler := func(e importedEvent) { calls++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Publish(importedEvent{})
	bus.Unsubscribe(handler)
	bus.Publish(importedEvent{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscribersCount())
}

func TestEventBus_MatchSignature(t *testing.T) {
	assert.True(t, eventbus.MatchSignature(func(importedEvent) {}, []interface{}{importedEvent{}}))
	assert.False(t, eventbus.MatchSignature(func(clearedEvent) {}, []interface{}{importedEvent{}}))
	assert.False(t, eventbus.MatchSignature("not a func", []interface{}{importedEvent{}}))
	assert.False(t, eventbus.MatchSignature(func(importedEvent, int) {}, []interface{}{importedEvent{}}))
}
