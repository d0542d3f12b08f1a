package broadcaster

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType is the wire name of an event. Clients dispatch on it, so a
// published value must never change meaning.
type EventType string

const (
	EventTypeActionCreated  EventType = "action_created"
	EventTypeActionUpdated  EventType = "action_updated"
	EventTypeActionDeleted  EventType = "action_deleted"
	EventTypeCommentCreated EventType = "comment_created"
	EventTypeProjectUpdated EventType = "project_updated"
	EventTypeForceLogout    EventType = "force_logout"
)

// Event is implemented only by the notification kinds declared in this file.
type Event interface {
	Type() EventType

	event()
}

type ActionCreated struct {
	ProjectId string          `json:"project_id"`
	Action    json.RawMessage `json:"action"`
}

type ActionUpdated struct {
	ProjectId string          `json:"project_id"`
	Action    json.RawMessage `json:"action"`
}

type ActionDeleted struct {
	ProjectId string `json:"project_id"`
	ActionId  string `json:"action_id"`
}

type CommentCreated struct {
	ActionId string          `json:"action_id"`
	Comment  json.RawMessage `json:"comment"`
}

type ProjectUpdated struct {
	ProjectId string          `json:"project_id"`
	Project   json.RawMessage `json:"project"`
}

type ForceLogout struct {
	Reason string `json:"reason"`
}

func (ActionCreated) Type() EventType  { return EventTypeActionCreated }
func (ActionUpdated) Type() EventType  { return EventTypeActionUpdated }
func (ActionDeleted) Type() EventType  { return EventTypeActionDeleted }
func (CommentCreated) Type() EventType { return EventTypeCommentCreated }
func (ProjectUpdated) Type() EventType { return EventTypeProjectUpdated }
func (ForceLogout) Type() EventType    { return EventTypeForceLogout }

func (ActionCreated) event()  {}
func (ActionUpdated) event()  {}
func (ActionDeleted) event()  {}
func (CommentCreated) event() {}
func (ProjectUpdated) event() {}
func (ForceLogout) event()    {}

var eventFactories = map[EventType]func() Event{
	EventTypeActionCreated:  func() Event { return &ActionCreated{} },
	EventTypeActionUpdated:  func() Event { return &ActionUpdated{} },
	EventTypeActionDeleted:  func() Event { return &ActionDeleted{} },
	EventTypeCommentCreated: func() Event { return &CommentCreated{} },
	EventTypeProjectUpdated: func() Event { return &ProjectUpdated{} },
	EventTypeForceLogout:    func() Event { return &ForceLogout{} },
}

type eventEnvelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalEvent encodes an event as {"type": ..., "data": {...}}.
func MarshalEvent(event Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("nil event")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.Type(), err)
	}

	return json.Marshal(eventEnvelope{
		Type: event.Type(),
		Data: data,
	})
}

// UnmarshalEvent decodes the output of MarshalEvent back into its variant.
func UnmarshalEvent(raw []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	factory, ok := eventFactories[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %q", envelope.Type)
	}

	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("missing data for event type %q", envelope.Type)
	}

	target := factory()
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return nil, fmt.Errorf("invalid data for event type %q: %w", envelope.Type, err)
	}

	return deref(target), nil
}

// Variants are dispatched by value so callers can switch on the concrete type.
func deref(event Event) Event {
	switch e := event.(type) {
	case *ActionCreated:
		return *e
	case *ActionUpdated:
		return *e
	case *ActionDeleted:
		return *e
	case *CommentCreated:
		return *e
	case *ProjectUpdated:
		return *e
	case *ForceLogout:
		return *e
	default:
		return event
	}
}
