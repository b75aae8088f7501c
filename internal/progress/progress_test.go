package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishToSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("user-1")
	defer h.Unsubscribe("user-1", ch)

	h.Publish(Event{UserID: "user-1", Step: StepValidating, Progress: 10})

	ev := <-ch
	assert.Equal(t, StepValidating, ev.Step)
	assert.Equal(t, 10, ev.Progress)
}

func TestHubIsolatesUsers(t *testing.T) {
	h := NewHub()
	ch1 := h.Subscribe("user-1")
	ch2 := h.Subscribe("user-2")
	defer h.Unsubscribe("user-1", ch1)
	defer h.Unsubscribe("user-2", ch2)

	h.Publish(Event{UserID: "user-1", Step: StepScraping})

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 0)
}

func TestHubMultipleSubscribersSameUser(t *testing.T) {
	h := NewHub()
	ch1 := h.Subscribe("user-1")
	ch2 := h.Subscribe("user-1")
	defer h.Unsubscribe("user-1", ch1)
	defer h.Unsubscribe("user-1", ch2)

	h.Publish(Event{UserID: "user-1", Step: StepComplete, Completed: true})

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 1)
}

func TestHubPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	h := NewHub()
	h.Publish(Event{UserID: "nobody", Step: StepAnalyzing})
}

func TestHubFullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("user-1")
	defer h.Unsubscribe("user-1", ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(Event{UserID: "user-1", Step: StepScraping})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("user-1")
	h.Unsubscribe("user-1", ch)

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice must not panic.
	h.Unsubscribe("user-1", ch)
}

func TestPercentCheckpoints(t *testing.T) {
	require.Equal(t, 10, Percent[StepValidating])
	require.Equal(t, 20, Percent[StepScraping])
	require.Equal(t, 50, Percent[StepAnalyzing])
	require.Equal(t, 70, Percent[StepCreating])
	require.Equal(t, 80, Percent[StepGeneratingICP])
	require.Equal(t, 100, Percent[StepComplete])
}
