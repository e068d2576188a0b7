package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// EventKind identifies a user action.
type EventKind int

const (
	EventRefreshModels EventKind = iota + 1
	EventSearchInput
	EventSearchFocus
	EventSelectModel
	EventFileSelected
	EventSendMessage
	EventCloseDocument
)

var eventNames = map[EventKind]string{
	EventRefreshModels: "refresh_models",
	EventSearchInput:   "search_input",
	EventSearchFocus:   "search_focus",
	EventSelectModel:   "select_model",
	EventFileSelected:  "file_selected",
	EventSendMessage:   "send_message",
	EventCloseDocument: "close_document",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event carries the payload of a user action. Text holds the search query,
// model id or message; Name and File describe a selected file.
type Event struct {
	Kind EventKind
	Text string
	Name string
	File io.Reader
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// ErrNoHandler is returned by Dispatch for an event nobody subscribed to.
var ErrNoHandler = errors.New("no handler registered")

// Bus delivers events to the handlers subscribed to their kind, in
// subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Dispatch runs every handler for ev.Kind and joins their errors.
func (b *Bus) Dispatch(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w for %s", ErrNoHandler, ev.Kind)
	}

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
