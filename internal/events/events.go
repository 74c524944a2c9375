// Package events provides event handling functionality
package events

import (
	"context"
	"sync"
	"time"

	"github.com/celestiaorg/trustgig/internal/logger"
)

// EventType represents the type of job lifecycle event
type EventType string

const (
	// EventJobPosted is emitted when a job is created and its reward deposited
	EventJobPosted EventType = "job_posted"
	// EventJobApplied is emitted when an identity applies to a job
	EventJobApplied EventType = "job_applied"
	// EventFreelancerSelected is emitted when the client assigns the job
	EventFreelancerSelected EventType = "freelancer_selected"
	// EventJobCompleted is emitted when the freelancer marks the work completed
	EventJobCompleted EventType = "job_completed"
	// EventRevisionRequested is emitted when the client sends completed work back
	EventRevisionRequested EventType = "revision_requested"
	// EventJobPaid is emitted when the escrow is released to the freelancer
	EventJobPaid EventType = "job_paid"
	// EventJobRefunded is emitted when the escrow is released back to the client
	EventJobRefunded EventType = "job_refunded"
	// EventDeadlinePassed is emitted once when an assigned job becomes refundable by its client
	EventDeadlinePassed EventType = "deadline_passed"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 100
)

// AllEventTypes lists every lifecycle event type
var AllEventTypes = []EventType{
	EventJobPosted,
	EventJobApplied,
	EventFreelancerSelected,
	EventJobCompleted,
	EventRevisionRequested,
	EventJobPaid,
	EventJobRefunded,
	EventDeadlinePassed,
}

// Event represents a committed job lifecycle change
type Event struct {
	Type         EventType `json:"type"`                   // The type of event
	JobID        uint      `json:"job_id"`                 // The job ID
	Caller       string    `json:"caller,omitempty"`       // Identity that triggered the change
	Status       string    `json:"status"`                 // Job status after the change
	Amount       int64     `json:"amount,omitempty"`       // Value that moved, if any
	Counterparty string    `json:"counterparty,omitempty"` // Other side of a fund movement or selection
	At           time.Time `json:"at"`                     // Commit time
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

var (
	// handlers is a map of event types to their handlers
	handlers = make(map[EventType][]Handler)
	// handlersMu is a mutex for the handlers map
	handlersMu sync.RWMutex
	// eventChan is a channel for events
	eventChan = make(chan Event, EventChannelSize)
)

// Subscribe registers a handler for a specific event type
func Subscribe(eventType EventType, handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers[eventType] = append(handlers[eventType], handler)
	logger.Debugf("registered handler for event type: %s", eventType)
}

// SubscribeAll registers a handler for every lifecycle event type
func SubscribeAll(handler Handler) {
	for _, t := range AllEventTypes {
		Subscribe(t, handler)
	}
}

// Publish queues an event for processing. Events are published after the
// change is committed, so a full queue drops the notification and never
// blocks the caller.
func Publish(event Event) {
	select {
	case eventChan <- event:
		logger.Debugf("published event: %s (job: %d)", event.Type, event.JobID)
	default:
		logger.Warnf("event queue full, dropping %s for job %d", event.Type, event.JobID)
	}
}

// Start starts the event processing loop
func Start(ctx context.Context) {
	go processEvents(ctx)
	logger.Info("started event processing loop")
}

// processEvents dispatches events in publish order; handlers of one event run sequentially
func processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping event processing loop")
			return
		case event := <-eventChan:
			handlersMu.RLock()
			eventHandlers := handlers[event.Type]
			handlersMu.RUnlock()

			for _, h := range eventHandlers {
				if err := h(ctx, event); err != nil {
					logger.Errorf("failed to handle event %s for job %d: %v", event.Type, event.JobID, err)
				}
			}
		}
	}
}
