package broadcaster

import (
	"go.uber.org/zap"
)

// Manager turns messages into frames and hands them to the registry. None of
// its operations report failure; anything that goes wrong is logged.
type Manager struct {
	logger   *zap.Logger
	registry Registry
}

func NewManager(
	logger *zap.Logger,
	registry Registry,
) *Manager {
	return &Manager{
		logger,
		registry,
	}
}

func (m *Manager) RegisterConnection(userId UserId, outbound Outbound) ConnectionId {
	connectionId := m.registry.Register(userId, outbound)

	m.logger.Info("connection registered",
		zap.Stringer("connectionId", connectionId),
		zap.String("userId", string(userId)))

	return connectionId
}

func (m *Manager) UnregisterConnection(connectionId ConnectionId) {
	m.registry.Unregister(connectionId)

	m.logger.Info("connection unregistered",
		zap.Stringer("connectionId", connectionId))
}

func (m *Manager) SendMessage(message Message) {
	if message.Event == nil {
		m.logger.Error("dropping message without event")

		return
	}

	eventType := message.Event.Type()

	data, err := MarshalEvent(message.Event)
	if err != nil {
		m.logger.Error("failed to serialize event, dropping message",
			zap.String("event", string(eventType)),
			zap.Error(err))

		return
	}

	frame := Frame{
		Event: string(eventType),
		Data:  string(data),
	}

	switch message.Scope.Kind {
	case ScopeKindUser:
		m.logger.Debug("sending event to user",
			zap.String("event", frame.Event),
			zap.String("userId", string(message.Scope.UserId)))

		m.registry.SendToUser(message.Scope.UserId, frame)
	case ScopeKindBroadcast:
		m.logger.Debug("broadcasting event",
			zap.String("event", frame.Event))

		m.registry.Broadcast(frame)
	default:
		m.logger.Error("dropping message with invalid scope",
			zap.String("event", frame.Event),
			zap.Int("scopeKind", int(message.Scope.Kind)))
	}
}

func (m *Manager) Stats() Stats {
	return m.registry.Stats()
}

// Close drops every live connection. Transports observe it through their
// outbound and unregister on their way out.
func (m *Manager) Close() {
	m.registry.Close()

	m.logger.Info("all connections closed")
}
