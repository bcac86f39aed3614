package registry

import (
	"sync"
	"time"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
)

// session is the transient in-memory state of one live call. It is owned
// exclusively by the Registry; all access goes through its mutex, which is
// what serializes ProcessMessage and End per call id.
//
// Handler transitions are one-directional: routing -> resolution ->
// escalation. Once escalated is set it never reverts for the life of the
// session; the only exit from escalation is session removal at call end.
type session struct {
	mu sync.Mutex

	callID         string
	startTime      time.Time
	department     string
	priority       int
	currentHandler contractx.HandlerType
	escalated      bool
	ended          bool
	messages       []contractx.Message
}

func newSession(callID string, start time.Time, initialHandler contractx.HandlerType) *session {
	return &session{
		callID:         callID,
		startTime:      start,
		department:     "general",
		priority:       2,
		currentHandler: initialHandler,
	}
}

// append adds one entry to the append-only history. Callers hold s.mu.
func (s *session) append(origin contractx.MessageOrigin, content, handlerID string, at time.Time) {
	s.messages = append(s.messages, contractx.Message{
		Origin:    origin,
		Content:   content,
		Timestamp: at,
		HandlerID: handlerID,
	})
}

// beginResolution moves a routing-pending session to the resolution handler.
// A no-op in any other state. Callers hold s.mu.
func (s *session) beginResolution() {
	if s.currentHandler == contractx.HandlerRouting {
		s.currentHandler = contractx.HandlerResolution
	}
}

// escalate performs the sticky handoff to the escalation handler. Callers
// hold s.mu.
func (s *session) escalate() {
	s.escalated = true
	s.currentHandler = contractx.HandlerEscalation
}

// raisePriority mirrors the store's one-directional rule on the in-memory
// copy. Callers hold s.mu.
func (s *session) raisePriority(priority int) {
	if priority > s.priority {
		s.priority = priority
	}
}

// history returns a copy safe to hand to handlers. Callers hold s.mu.
func (s *session) history() []contractx.Message {
	out := make([]contractx.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
