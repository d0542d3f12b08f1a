package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/ierr"
)

type PublishRequest struct {
	UserId    string          `json:"userId,omitempty"`
	Broadcast bool            `json:"broadcast,omitempty"`
	Event     json.RawMessage `json:"event"`
}

type PublishResponse struct {
	Type      broadcaster.EventType `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
}

type Publisher interface {
	SendMessage(message broadcaster.Message)
}

type PublishHandlerInterface interface {
	Handle(ctx context.Context, req PublishRequest) (PublishResponse, error)
}

type PublishHandler struct {
	userIdValidator *UserIdValidator
	publisher       Publisher
}

func NewPublishHandler(
	userIdValidator *UserIdValidator,
	publisher Publisher,
) *PublishHandler {
	return &PublishHandler{
		userIdValidator,
		publisher,
	}
}

func (h *PublishHandler) Handle(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	authentication, ok := auth.AuthenticationFromContext(ctx)
	if !ok || authentication == nil {
		return PublishResponse{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("user not authenticated"))
	}

	if !authentication.IsPublisher() {
		return PublishResponse{},
			ierr.New(ierr.ErrorCodePermissionDenied, errors.New("publish scope required to publish events"))
	}

	scope, err := h.scope(authentication, req)
	if err != nil {
		return PublishResponse{}, err
	}

	if len(req.Event) == 0 {
		return PublishResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("missing event"))
	}

	event, err := broadcaster.UnmarshalEvent(req.Event)
	if err != nil {
		return PublishResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, err)
	}

	h.publisher.SendMessage(broadcaster.Message{
		Event: event,
		Scope: scope,
	})

	return PublishResponse{
		Type:      event.Type(),
		Timestamp: time.Now(),
	}, nil
}

func (h *PublishHandler) scope(authentication *auth.Authentication, req PublishRequest) (broadcaster.Scope, error) {
	if req.Broadcast == (req.UserId != "") {
		return broadcaster.Scope{},
			ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("exactly one of userId or broadcast is required"))
	}

	if req.Broadcast {
		if !authentication.CanTarget("") {
			return broadcaster.Scope{},
				ierr.New(ierr.ErrorCodePermissionDenied, errors.New("not authorized to broadcast"))
		}

		return broadcaster.BroadcastScope(), nil
	}

	if err := h.userIdValidator.Validate(req.UserId); err != nil {
		return broadcaster.Scope{}, err
	}

	if !authentication.CanTarget(req.UserId) {
		return broadcaster.Scope{},
			ierr.New(ierr.ErrorCodePermissionDenied, errors.New("not authorized to publish to this user"))
	}

	return broadcaster.UserScope(broadcaster.UserId(req.UserId)), nil
}
