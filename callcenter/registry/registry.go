// Package registry implements the call session registry: the orchestrator
// that owns live call sessions, dispatches inbound messages to the handler
// implied by session state, performs the sticky escalation handoff, and
// reconciles in-memory state with the durable call record.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	handlerx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/handlers"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

// InitiateResult reports what happened during call initiation.
type InitiateResult struct {
	CallID          string                   `json:"call_id"`
	Routing         *contractx.RoutingResult `json:"routing_info,omitempty"`
	InitialResponse *HandlerOutput           `json:"initial_response,omitempty"`
}

// HandlerOutput is the per-message result handed back to the caller.
type HandlerOutput struct {
	Handler             contractx.HandlerType       `json:"handler"`
	HandlerID           string                      `json:"handler_id"`
	Response            string                      `json:"response"`
	SentimentDetected   string                      `json:"sentiment_detected,omitempty"`
	NextSteps           string                      `json:"next_steps,omitempty"`
	EscalationTriggered bool                        `json:"escalation_triggered,omitempty"`
	Escalation          *contractx.EscalationResult `json:"escalation_info,omitempty"`
}

// EndResult reports the outcome of ending a call.
type EndResult struct {
	CallID           string                   `json:"call_id"`
	DurationSeconds  int                      `json:"duration_seconds"`
	ResolutionStatus string                   `json:"resolution_status"`
	Quality          *contractx.QualityReview `json:"quality_analysis,omitempty"`
}

// StatusSnapshot is a read-only view of a call, live or historical.
type StatusSnapshot struct {
	CallID          string                `json:"call_id"`
	Status          string                `json:"status"`
	CurrentHandler  contractx.HandlerType `json:"current_handler,omitempty"`
	Escalated       bool                  `json:"escalated"`
	MessageCount    int                   `json:"message_count,omitempty"`
	Department      string                `json:"department,omitempty"`
	Priority        int                   `json:"priority,omitempty"`
	DurationSeconds int                   `json:"duration_seconds"`
}

// SummaryReport aggregates live sessions. Pure read, no side effects.
type SummaryReport struct {
	TotalActiveCalls   int                           `json:"total_active_calls"`
	CallsByHandler     map[contractx.HandlerType]int `json:"calls_by_handler"`
	CallsByDepartment  map[string]int                `json:"calls_by_department"`
	EscalatedCalls     int                           `json:"escalated_calls"`
	AvgDurationSeconds int                           `json:"average_duration"`
	ActiveCallIDs      []string                      `json:"active_calls"`
}

// Registry owns the set of currently active call sessions. The sessions map
// is guarded by mu for concurrent insertion and removal across call ids;
// each session's own mutex serializes ProcessMessage and End per call id, so
// different calls proceed fully in parallel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store     storex.Store
	router    contractx.Router
	resolver  contractx.Resolver
	escalator contractx.Escalator

	log zerolog.Logger
	now func() time.Time
}

func New(st storex.Store, router contractx.Router, resolver contractx.Resolver, escalator contractx.Escalator, logger zerolog.Logger) (*Registry, error) {
	if st == nil {
		return nil, errors.New("record store is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if escalator == nil {
		return nil, errors.New("escalator is required")
	}
	return &Registry{
		sessions:  make(map[string]*session),
		store:     st,
		router:    router,
		resolver:  resolver,
		escalator: escalator,
		log:       logger.With().Str("component", "call_registry").Logger(),
		now:       time.Now,
	}, nil
}

// Initiate allocates a call id, creates the persistent Call record with the
// general/priority-2 defaults, and — when an initial message is supplied —
// routes it and feeds it through ProcessMessage. Only a store failure on the
// initial record aborts; routing failures degrade to the defaults.
func (r *Registry) Initiate(ctx context.Context, contact contractx.ContactInfo, initialMessage string) (*InitiateResult, error) {
	callID := newCallID()
	start := r.now()

	call := &storex.Call{
		CallID:        callID,
		CustomerPhone: contact.Phone,
		CustomerName:  contact.Name,
		Department:    "general",
		Priority:      2,
		Status:        storex.CallStatusActive,
		CreatedAt:     start.UTC(),
	}
	if err := r.store.CreateCall(ctx, call); err != nil {
		return nil, fmt.Errorf("%w: create call record: %v", contractx.ErrPersistence, err)
	}

	sess := newSession(callID, start, contractx.HandlerRouting)
	r.mu.Lock()
	r.sessions[callID] = sess
	r.mu.Unlock()

	customer := contact.Name
	if customer == "" {
		customer = contact.Phone
	}
	r.appendSystemLog(ctx, callID, fmt.Sprintf("Call initiated - Customer: %s", customer))

	result := &InitiateResult{CallID: callID}

	if strings.TrimSpace(initialMessage) != "" {
		routing, err := r.router.Route(ctx, callID, initialMessage, contact)
		if err != nil {
			// The call proceeds with the general/priority-2 defaults.
			r.log.Warn().Err(err).Str("call_id", callID).Msg("routing degraded to defaults")
		} else {
			sess.mu.Lock()
			sess.department = routing.Decision.Department
			sess.raisePriority(routing.Decision.Priority)
			sess.mu.Unlock()
		}
		result.Routing = &routing

		output, err := r.ProcessMessage(ctx, callID, initialMessage)
		if err != nil {
			return result, err
		}
		result.InitialResponse = output
	}

	r.log.Info().
		Str("call_id", callID).
		Bool("with_message", initialMessage != "").
		Msg("call initiated")
	return result, nil
}

// ProcessMessage appends the customer message, dispatches to the handler
// named by current session state, and applies the handler's output. At most
// one ProcessMessage executes per call id at any instant.
func (r *Registry) ProcessMessage(ctx context.Context, callID, text string) (*HandlerOutput, error) {
	sess := r.lookup(callID)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, callID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, callID)
	}

	now := r.now()
	sess.append(contractx.OriginCustomer, text, "", now)
	r.appendCustomerLog(ctx, callID, text)

	// The routing state is transient: the first inbound message always lands
	// on the resolution handler.
	sess.beginResolution()

	var output *HandlerOutput
	switch sess.currentHandler {
	case contractx.HandlerEscalation:
		out, err := r.escalator.Escalate(ctx, callID, "continued_interaction")
		if err != nil {
			return nil, err
		}
		output = &HandlerOutput{
			Handler:   contractx.HandlerEscalation,
			HandlerID: handlerx.EscalationHandlerID,
			Response:  out.SupervisorResponse,
		}
		sess.raisePriority(priorityFor(out.SeverityLevel))

	default:
		out, err := r.resolver.Resolve(ctx, callID, text, sess.history())
		if err != nil {
			return nil, err
		}
		output = &HandlerOutput{
			Handler:           contractx.HandlerResolution,
			HandlerID:         handlerx.ResolutionHandlerID,
			Response:          out.Response,
			SentimentDetected: out.SentimentDetected,
			NextSteps:         out.NextSteps,
		}
		if out.EscalationRequired {
			reason := out.ActionNeeded
			if reason == "" {
				reason = "customer_request"
			}
			escalation, err := r.escalator.Escalate(ctx, callID, reason)
			if err == nil {
				output.Escalation = &escalation
				sess.raisePriority(priorityFor(escalation.SeverityLevel))
			} else {
				r.log.Warn().Err(err).Str("call_id", callID).Msg("escalation handoff degraded")
			}
			// The handoff is sticky even when the supervisor assessment
			// itself failed.
			sess.escalate()
			output.EscalationTriggered = true
		}
	}

	sess.append(contractx.OriginHandler, output.Response, output.HandlerID, r.now())
	return output, nil
}

// End finalizes the persistent Call record, triggers the one-time quality
// review, and removes the session. A second End for the same id fails with
// ErrSessionNotFound rather than double-charging duration.
func (r *Registry) End(ctx context.Context, callID, resolutionStatus string) (*EndResult, error) {
	sess := r.lookup(callID)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, callID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, callID)
	}

	if resolutionStatus == "" {
		resolutionStatus = "completed"
	}
	end := r.now()
	duration := int(end.Sub(sess.startTime).Seconds())

	if err := r.store.FinalizeCall(ctx, callID, storex.CallStatusCompleted, end, duration); err != nil {
		// Session truth cannot be reconciled without the store; the session
		// stays live so a retry can finalize it.
		return nil, fmt.Errorf("%w: finalize call: %v", contractx.ErrPersistence, err)
	}

	r.appendSystemLog(ctx, callID,
		fmt.Sprintf("Call ended - Duration: %ds, Status: %s", duration, resolutionStatus))

	result := &EndResult{
		CallID:           callID,
		DurationSeconds:  duration,
		ResolutionStatus: resolutionStatus,
	}
	review, err := r.escalator.QualityReview(ctx, callID)
	if err != nil {
		// Advisory only; the call still ends cleanly.
		r.log.Warn().Err(err).Str("call_id", callID).Msg("quality review failed")
	} else {
		result.Quality = &review
	}

	sess.ended = true
	r.mu.Lock()
	delete(r.sessions, callID)
	r.mu.Unlock()

	r.log.Info().
		Str("call_id", callID).
		Int("duration_seconds", duration).
		Str("resolution", resolutionStatus).
		Msg("call ended")
	return result, nil
}

// Status returns live in-memory state for active calls and falls back to the
// persistent record for ended ones. It fails only when the id is unknown to
// both the registry and the store.
func (r *Registry) Status(ctx context.Context, callID string) (*StatusSnapshot, error) {
	if sess := r.lookup(callID); sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if !sess.ended {
			return &StatusSnapshot{
				CallID:          callID,
				Status:          storex.CallStatusActive,
				CurrentHandler:  sess.currentHandler,
				Escalated:       sess.escalated,
				MessageCount:    len(sess.messages),
				Department:      sess.department,
				Priority:        sess.priority,
				DurationSeconds: int(r.now().Sub(sess.startTime).Seconds()),
			}, nil
		}
	}

	call, err := r.store.CallByID(ctx, callID)
	if errors.Is(err, storex.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, callID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load call record: %v", contractx.ErrPersistence, err)
	}
	return &StatusSnapshot{
		CallID:          callID,
		Status:          call.Status,
		Department:      call.Department,
		Priority:        call.Priority,
		DurationSeconds: call.DurationSeconds,
	}, nil
}

// Summary aggregates all live sessions.
func (r *Registry) Summary() *SummaryReport {
	r.mu.RLock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	report := &SummaryReport{
		CallsByHandler:    make(map[contractx.HandlerType]int),
		CallsByDepartment: make(map[string]int),
	}

	now := r.now()
	totalDuration := 0
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.ended {
			sess.mu.Unlock()
			continue
		}
		report.TotalActiveCalls++
		report.CallsByHandler[sess.currentHandler]++
		if sess.department != "" {
			report.CallsByDepartment[sess.department]++
		}
		if sess.escalated {
			report.EscalatedCalls++
		}
		totalDuration += int(now.Sub(sess.startTime).Seconds())
		report.ActiveCallIDs = append(report.ActiveCallIDs, sess.callID)
		sess.mu.Unlock()
	}

	if report.TotalActiveCalls > 0 {
		report.AvgDurationSeconds = totalDuration / report.TotalActiveCalls
	}
	return report
}

func (r *Registry) lookup(callID string) *session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[callID]
}

func (r *Registry) appendSystemLog(ctx context.Context, callID, content string) {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: handlerx.SystemHandlerID,
		EntryType: storex.EntrySystem,
		Content:   content,
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("failed to append system log entry")
	}
}

func (r *Registry) appendCustomerLog(ctx context.Context, callID, content string) {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: handlerx.SystemHandlerID,
		EntryType: storex.EntryCustomer,
		Content:   content,
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("failed to append customer log entry")
	}
}

func priorityFor(severity string) int {
	switch severity {
	case contractx.SeverityHigh:
		return 3
	case contractx.SeverityCritical:
		return 4
	default:
		return 0
	}
}

func newCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
