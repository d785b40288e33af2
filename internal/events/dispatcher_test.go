package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var got []string
	d.Subscribe(EventStockAlert, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.ProductID)
		return errors.New("boom")
	})
	d.Subscribe(EventStockAlert, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.ProductID)
		return nil
	})
	d.Subscribe(EventProductDeleted, func(context.Context, Event) error {
		got = append(got, "deleted")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStockAlert, ProductID: "p1"})

	assert.NoError(t, err)
	assert.Equal(t, []string{"first:p1", "second:p1"}, got)
}
