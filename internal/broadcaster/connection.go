package broadcaster

import (
	"strconv"
	"sync"
)

// ConnectionId identifies one live connection. It records the registry shard
// that owns the connection so it can be found without a global index.
type ConnectionId struct {
	shard uint32
	value string
}

func (id ConnectionId) String() string {
	return strconv.FormatUint(uint64(id.shard), 10) + "-" + id.value
}

func (id ConnectionId) IsZero() bool {
	return id.value == ""
}

// Outbound is the registry-facing end of a connection's delivery queue.
type Outbound interface {
	// TryPush must not block. A false return means the connection is dead.
	TryPush(frame Frame) bool
	// Close must be safe to call more than once.
	Close()
}

type Connection struct {
	Id       ConnectionId
	UserId   UserId
	Outbound Outbound
}

// Mailbox is a bounded Outbound drained by a single transport goroutine.
type Mailbox struct {
	frames chan Frame
	done   chan struct{}
	once   sync.Once
}

var _ Outbound = (*Mailbox)(nil)

func NewMailbox(size int) *Mailbox {
	return &Mailbox{
		frames: make(chan Frame, max(size, 1)),
		done:   make(chan struct{}),
	}
}

func (m *Mailbox) TryPush(frame Frame) bool {
	select {
	case <-m.done:
		return false
	default:
	}

	select {
	case m.frames <- frame:
		return true
	default:
		return false
	}
}

// Close marks the receiving side as gone. The frames channel is never closed,
// so a push racing with Close cannot panic.
func (m *Mailbox) Close() {
	m.once.Do(func() {
		close(m.done)
	})
}

func (m *Mailbox) Frames() <-chan Frame {
	return m.frames
}

func (m *Mailbox) Done() <-chan struct{} {
	return m.done
}
