package broadcaster

type UserId string

type ScopeKind int

const (
	ScopeKindUser ScopeKind = iota + 1
	ScopeKindBroadcast
)

// Scope is the routing target of a message. The zero value routes nowhere.
type Scope struct {
	Kind   ScopeKind
	UserId UserId
}

func UserScope(userId UserId) Scope {
	return Scope{
		Kind:   ScopeKindUser,
		UserId: userId,
	}
}

func BroadcastScope() Scope {
	return Scope{
		Kind: ScopeKindBroadcast,
	}
}

type Message struct {
	Event Event
	Scope Scope
}

// Frame is what transports write to clients. Data holds the serialized event
// as a JSON string, so consumers decode it a second time to reach type/data.
type Frame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}
