package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/eventbus"
)

func TestNopSinkNeverErrors(t *testing.T) {
	var sink eventbus.Sink = eventbus.NopSink{}
	require.NoError(t, sink.Publish(eventbus.Event{Kind: eventbus.KindBoot}))
}

func TestKindSubjectIsNamespaced(t *testing.T) {
	require.Equal(t, "aspectrt.weave.fire", eventbus.KindFire.Subject())
}

func TestEmbeddedBusPublishesAndDelivers(t *testing.T) {
	bus, err := eventbus.StartEmbedded()
	require.NoError(t, err)
	defer bus.Close()

	received := make(chan eventbus.Event, 1)
	sub, err := bus.Subscribe(eventbus.KindWeave.Subject(), func(evt eventbus.Event) {
		received <- evt
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(eventbus.Event{
		Kind:     eventbus.KindWeave,
		AspectID: "log-greet",
		Detail:   "aspect",
	}))

	select {
	case evt := <-received:
		require.Equal(t, "log-greet", evt.AspectID)
		require.Equal(t, eventbus.KindWeave, evt.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}
