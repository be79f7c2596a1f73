// Package audit provides an audit trail for registry mutations, the
// service-side analog of the events the rendering consumers subscribe to.
package audit

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the registry handlers.
const (
	ActionSetRenderer     = "set_renderer"
	ActionAddCollection   = "add_collection"
	ActionSetAddressColor = "set_address_colors"
	ActionSetItemColors   = "set_item_colors"
	ActionSetTopAffiliate = "set_top_affiliate"
)

// Outcomes for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ErrEventNotFound is returned when looking up an unknown event.
var ErrEventNotFound = errors.New("audit event not found")

// Event represents a single recorded mutation attempt.
type Event struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"` // address or collection/item the call targeted
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"` // error text on failure
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is the input for recording an event.
type Entry struct {
	Actor     string
	Action    string
	Entity    string
	Outcome   string
	Detail    string
	RequestID string
}

// Repository stores audit events.
type Repository interface {
	// Record persists an event and returns its generated ID.
	Record(entry Entry) (string, error)

	// List returns all events, newest first.
	List() ([]*Event, error)
}

// MemoryRepository is an in-memory Repository. Thread-safe via RWMutex.
type MemoryRepository struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Record persists an event.
func (r *MemoryRepository) Record(entry Entry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := &Event{
		ID:        uuid.New().String(),
		Actor:     entry.Actor,
		Action:    entry.Action,
		Entity:    entry.Entity,
		Outcome:   entry.Outcome,
		Detail:    entry.Detail,
		RequestID: entry.RequestID,
		CreatedAt: time.Now(),
	}
	r.events = append(r.events, event)
	return event.ID, nil
}

// List returns all events, newest first.
func (r *MemoryRepository) List() ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Event, len(r.events))
	for i, e := range r.events {
		copied := *e
		out[len(r.events)-1-i] = &copied
	}
	return out, nil
}
