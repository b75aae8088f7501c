// Package progress defines pipeline progress events and an in-process hub
// that fans them out to per-user subscribers.
package progress

import "sync"

// Pipeline steps, in execution order. Each step carries a fixed progress
// percentage so clients can render a bar without tracking step order.
const (
	StepValidating    = "validating"
	StepScraping      = "scraping"
	StepAnalyzing     = "analyzing"
	StepCreating      = "creating"
	StepGeneratingICP = "generating-icp"
	StepError         = "error"
	StepComplete      = "complete"
)

// Percent maps each step to its progress percentage.
var Percent = map[string]int{
	StepValidating:    10,
	StepScraping:      20,
	StepAnalyzing:     50,
	StepCreating:      70,
	StepGeneratingICP: 80,
	StepError:         90,
	StepComplete:      100,
}

// Event is one progress update for a user's enrichment run.
type Event struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId,omitempty"`
	Step      string `json:"step"`
	Message   string `json:"message"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Notifier publishes progress events. Publish never blocks: slow or absent
// subscribers must not stall the pipeline.
type Notifier interface {
	Publish(ev Event)
}

// NopNotifier discards all events. Used by CLI paths that have no
// connected clients.
type NopNotifier struct{}

func (NopNotifier) Publish(Event) {}

// subscriberBuffer is the channel depth per subscriber. A full pipeline
// run emits single-digit event counts, so a modest buffer absorbs slow
// readers without dropping under normal conditions.
const subscriberBuffer = 16

// Hub fans events out to subscribers keyed by user ID. Events for a user
// with no subscribers are dropped.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a new subscriber for userID and returns its channel.
// The caller must Unsubscribe when done.
func (h *Hub) Subscribe(userID string) chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(h.subs, userID)
	}
	close(ch)
}

// Publish delivers ev to every subscriber of ev.UserID. Delivery is
// best-effort: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
