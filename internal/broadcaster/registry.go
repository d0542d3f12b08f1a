package broadcaster

import (
	"hash/fnv"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type Registry interface {
	Register(userId UserId, outbound Outbound) ConnectionId
	Unregister(connectionId ConnectionId)
	SendToUser(userId UserId, frame Frame)
	Broadcast(frame Frame)
	Stats() Stats
	Close()
}

type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
}

// InMemoryRegistry partitions connections by user. Each shard keeps both
// indices under a single lock, so a user's entries are always updated as a
// pair and routing to one user only ever touches one shard.
type InMemoryRegistry struct {
	logger *zap.Logger
	shards []*shard
}

type shard struct {
	mu sync.RWMutex

	connections       map[ConnectionId]*Connection
	connectionsByUser map[UserId]map[ConnectionId]struct{}
}

func NewInMemoryRegistry(
	logger *zap.Logger,
	shardCount int,
) *InMemoryRegistry {
	shards := make([]*shard, max(shardCount, 1))
	for i := range shards {
		shards[i] = &shard{
			connections:       make(map[ConnectionId]*Connection),
			connectionsByUser: make(map[UserId]map[ConnectionId]struct{}),
		}
	}

	return &InMemoryRegistry{
		logger: logger,
		shards: shards,
	}
}

func (r *InMemoryRegistry) shardIndex(userId UserId) uint32 {
	if len(r.shards) == 1 {
		return 0
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(userId))

	return h.Sum32() % uint32(len(r.shards))
}

func (r *InMemoryRegistry) Register(userId UserId, outbound Outbound) ConnectionId {
	index := r.shardIndex(userId)
	s := r.shards[index]

	s.mu.Lock()
	defer s.mu.Unlock()

	var connectionId ConnectionId
	for {
		connectionId = ConnectionId{shard: index, value: gonanoid.Must()}
		if _, taken := s.connections[connectionId]; !taken {
			break
		}
	}

	s.connections[connectionId] = &Connection{
		Id:       connectionId,
		UserId:   userId,
		Outbound: outbound,
	}

	userConnections, ok := s.connectionsByUser[userId]
	if !ok {
		userConnections = make(map[ConnectionId]struct{})
		s.connectionsByUser[userId] = userConnections
	}

	userConnections[connectionId] = struct{}{}

	return connectionId
}

func (r *InMemoryRegistry) Unregister(connectionId ConnectionId) {
	if int(connectionId.shard) >= len(r.shards) {
		return
	}

	s := r.shards[connectionId.shard]

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(connectionId)
}

func (r *InMemoryRegistry) SendToUser(userId UserId, frame Frame) {
	s := r.shards[r.shardIndex(userId)]

	s.mu.RLock()

	connectionIds, ok := s.connectionsByUser[userId]
	if !ok {
		s.mu.RUnlock()

		return
	}

	connections := make([]*Connection, 0, len(connectionIds))
	for connectionId := range connectionIds {
		if connection, ok := s.connections[connectionId]; ok {
			connections = append(connections, connection)
		}
	}

	staleConnectionIds := r.pushAll(connections, frame)

	s.mu.RUnlock()

	s.removeStale(staleConnectionIds)
}

func (r *InMemoryRegistry) Broadcast(frame Frame) {
	for _, s := range r.shards {
		s.mu.RLock()

		connections := make([]*Connection, 0, len(s.connections))
		for _, connection := range s.connections {
			connections = append(connections, connection)
		}

		staleConnectionIds := r.pushAll(connections, frame)

		s.mu.RUnlock()

		s.removeStale(staleConnectionIds)
	}
}

func (r *InMemoryRegistry) Stats() Stats {
	var stats Stats

	for _, s := range r.shards {
		s.mu.RLock()
		stats.Connections += len(s.connections)
		stats.Users += len(s.connectionsByUser)
		s.mu.RUnlock()
	}

	return stats
}

// Close removes every connection and closes its outbound.
func (r *InMemoryRegistry) Close() {
	for _, s := range r.shards {
		s.mu.Lock()

		for connectionId := range s.connections {
			s.removeLocked(connectionId)
		}

		s.mu.Unlock()
	}
}

func (r *InMemoryRegistry) pushAll(connections []*Connection, frame Frame) []ConnectionId {
	var staleConnectionIds []ConnectionId

	for _, connection := range connections {
		if connection.Outbound.TryPush(frame) {
			continue
		}

		r.logger.Warn("connection outbound rejected frame, removing connection",
			zap.Stringer("connectionId", connection.Id),
			zap.String("userId", string(connection.UserId)),
			zap.String("event", frame.Event))

		staleConnectionIds = append(staleConnectionIds, connection.Id)
	}

	return staleConnectionIds
}

func (s *shard) removeStale(connectionIds []ConnectionId) {
	if len(connectionIds) == 0 {
		return
	}

	s.mu.Lock()

	for _, connectionId := range connectionIds {
		s.removeLocked(connectionId)
	}

	s.mu.Unlock()
}

// IMPORTANT: It must be called only when the shard write lock is already held.
func (s *shard) removeLocked(connectionId ConnectionId) {
	connection, ok := s.connections[connectionId]
	if !ok {
		return
	}

	userConnections, ok := s.connectionsByUser[connection.UserId]
	if !ok {
		panic("inconsistent state: user not found in connectionsByUser")
	}

	delete(userConnections, connectionId)
	if len(userConnections) == 0 {
		delete(s.connectionsByUser, connection.UserId)
	}

	delete(s.connections, connectionId)
	connection.Outbound.Close()
}
