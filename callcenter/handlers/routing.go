package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	catalogx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/catalog"
	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	promptx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/prompt"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

// DefaultWorkerCallCap is the concurrency cap a worker must stay under to be
// considered for new calls.
const DefaultWorkerCallCap = 3

// Callback queue thresholds.
const (
	callbackQueueDepth   = 5
	callbackMinPriority  = 3
	callbackWaitNoWorker = "15-30 minutes"
	callbackWaitBusy     = "10-15 minutes"
)

// Router is the routing decision engine. It asks the inference gateway for a
// department assignment and ranks available workers by load. A gateway
// failure degrades to the hard-coded general/priority-2 decision; routing
// never blocks a call.
type Router struct {
	gw        contractx.InferenceGateway
	store     storex.Store
	prompt    string
	log       zerolog.Logger
	workerCap int
}

var _ contractx.Router = (*Router)(nil)

func NewRouter(gw contractx.InferenceGateway, st storex.Store, logger zerolog.Logger) *Router {
	systemPrompt := promptx.Render(promptx.Load().Routing, map[string]string{
		"department_catalog": catalogx.PromptJSON(),
	})
	return &Router{
		gw:        gw,
		store:     st,
		prompt:    systemPrompt,
		log:       logger.With().Str("handler", RoutingHandlerID).Logger(),
		workerCap: DefaultWorkerCallCap,
	}
}

type routingDecisionOutput struct {
	Department         string   `json:"department"`
	DepartmentName     string   `json:"department_name"`
	Priority           int      `json:"priority"`
	Complexity         string   `json:"complexity"`
	EstimatedDuration  int      `json:"estimated_duration"`
	RequiredSkills     []string `json:"required_skills"`
	Reasoning          string   `json:"reasoning"`
	ImmediateAttention bool     `json:"immediate_attention"`
}

// Route analyzes the initial utterance and applies the decision to the
// persistent Call record. The returned error reports only record-store
// problems; inference failures are absorbed into the fallback decision.
func (r *Router) Route(ctx context.Context, callID, message string, contact contractx.ContactInfo) (contractx.RoutingResult, error) {
	r.appendSystemLog(ctx, callID, fmt.Sprintf("Routing analysis started for: %s", truncate(message, 100)))

	var out routingDecisionOutput
	err := r.gw.Decide(ctx, contractx.InferenceRequest{
		SystemInstructions: r.prompt,
		Context:            renderContact(contact),
		UserMessage:        fmt.Sprintf("Customer inquiry: %s", message),
	}, &out)
	if err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("routing inference failed, using fallback decision")
		r.appendSystemLog(ctx, callID, fmt.Sprintf("Routing error occurred: %v - Defaulted to general department", err))
		return r.fallbackResult(ctx, callID)
	}

	decision := contractx.RoutingDecision{
		Department:         catalogx.Normalize(out.Department),
		DepartmentName:     strings.TrimSpace(out.DepartmentName),
		Priority:           clampPriority(out.Priority),
		Complexity:         strings.TrimSpace(out.Complexity),
		EstimatedDuration:  out.EstimatedDuration,
		RequiredSkills:     out.RequiredSkills,
		Reasoning:          strings.TrimSpace(out.Reasoning),
		ImmediateAttention: out.ImmediateAttention,
	}
	if dept, ok := catalogx.Lookup(decision.Department); ok && decision.DepartmentName == "" {
		decision.DepartmentName = dept.Name
	}

	workers, werr := r.availableWorkers(ctx)
	if werr != nil {
		r.log.Warn().Err(werr).Str("call_id", callID).Msg("worker lookup failed")
	}

	r.appendSystemLog(ctx, callID, fmt.Sprintf("Routed to %s - Priority: %d", decision.DepartmentName, decision.Priority))

	assigned := ""
	if len(workers) > 0 {
		assigned = workers[0].WorkerID
	}
	if err := r.store.UpdateRouting(ctx, callID, decision.Department, decision.Priority, assigned); err != nil {
		return contractx.RoutingResult{Decision: decision, Workers: workers},
			fmt.Errorf("%w: apply routing decision: %v", contractx.ErrPersistence, err)
	}

	r.log.Info().
		Str("call_id", callID).
		Str("department", decision.Department).
		Int("priority", decision.Priority).
		Int("candidates", len(workers)).
		Msg("call routed")

	return contractx.RoutingResult{Decision: decision, Workers: workers}, nil
}

func (r *Router) fallbackResult(ctx context.Context, callID string) (contractx.RoutingResult, error) {
	workers, err := r.availableWorkers(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("worker lookup failed during fallback")
	}
	return contractx.RoutingResult{
		Decision: contractx.RoutingDecision{
			Department:     catalogx.DefaultDepartment,
			DepartmentName: "General Inquiries",
			Priority:       2,
			Complexity:     "moderate",
			Reasoning:      "Error occurred during routing analysis, defaulting to general inquiries",
		},
		Workers:  workers,
		Fallback: true,
	}, nil
}

// availableWorkers filters to in-capacity available workers and ranks them
// ascending by current load. The sort is stable so equally loaded workers
// keep roster order.
func (r *Router) availableWorkers(ctx context.Context) ([]contractx.WorkerSummary, error) {
	agents, err := r.store.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list agents: %v", contractx.ErrPersistence, err)
	}

	workers := make([]contractx.WorkerSummary, 0, len(agents))
	for _, agent := range agents {
		if agent.Status != storex.WorkerAvailable || agent.CurrentCalls >= r.workerCap {
			continue
		}
		workers = append(workers, contractx.WorkerSummary{
			WorkerID:     agent.AgentID,
			Name:         agent.Name,
			Role:         agent.Role,
			CurrentCalls: agent.CurrentCalls,
			TotalCalls:   agent.TotalCalls,
		})
	}
	sort.SliceStable(workers, func(i, j int) bool {
		return workers[i].CurrentCalls < workers[j].CurrentCalls
	})
	return workers, nil
}

// QueueStatus reports live-call and available-worker counts per department,
// or for a single department when one is given.
func (r *Router) QueueStatus(ctx context.Context, department string) ([]contractx.QueueStatus, error) {
	active, err := r.store.ActiveCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list active calls: %v", contractx.ErrPersistence, err)
	}
	workers, err := r.availableWorkers(ctx)
	if err != nil {
		return nil, err
	}

	activeByDept := make(map[string]int)
	for _, call := range active {
		activeByDept[call.Department]++
	}

	var depts []catalogx.Department
	if department != "" {
		dept, ok := catalogx.Lookup(department)
		if !ok {
			return nil, fmt.Errorf("%w: unknown department %q", contractx.ErrValidation, department)
		}
		depts = []catalogx.Department{dept}
	} else {
		depts = catalogx.Departments()
	}

	statuses := make([]contractx.QueueStatus, 0, len(depts))
	for _, dept := range depts {
		statuses = append(statuses, contractx.QueueStatus{
			Department:       dept.Code,
			Name:             dept.Name,
			ActiveCalls:      activeByDept[dept.Code],
			AvailableWorkers: len(workers),
			AvgWaitTime:      dept.AvgWaitTime,
			Hours:            dept.Hours,
		})
	}
	return statuses, nil
}

// RecommendCallback offers a callback when the department has no available
// workers or more than five active calls. Priority >= 3 calls must hold and
// are never offered a callback.
func (r *Router) RecommendCallback(ctx context.Context, callID, department string) (contractx.CallbackAdvice, error) {
	statuses, err := r.QueueStatus(ctx, department)
	if err != nil {
		return contractx.CallbackAdvice{}, err
	}
	status := statuses[0]

	advice := contractx.CallbackAdvice{
		QueuePosition: status.ActiveCalls + 1,
		Reasoning: fmt.Sprintf("Based on %d active calls and %d available workers",
			status.ActiveCalls, status.AvailableWorkers),
	}
	if status.AvailableWorkers == 0 {
		advice.Offer = true
		advice.EstimatedWait = callbackWaitNoWorker
	} else if status.ActiveCalls > callbackQueueDepth {
		advice.Offer = true
		advice.EstimatedWait = callbackWaitBusy
	}

	call, err := r.store.CallByID(ctx, callID)
	if err != nil {
		return contractx.CallbackAdvice{}, fmt.Errorf("%w: load call %s: %v", contractx.ErrPersistence, callID, err)
	}
	if call.Priority >= callbackMinPriority {
		advice.Offer = false
		advice.EstimatedWait = ""
		advice.Reasoning = "High priority call must hold for the next available worker"
	}
	return advice, nil
}

// RecordOutcome logs post-call routing accuracy data for later analysis.
func (r *Router) RecordOutcome(ctx context.Context, callID string, resolutionMinutes, satisfaction int) error {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: RoutingHandlerID,
		EntryType: storex.EntrySystem,
		Content: fmt.Sprintf("Call completed - Resolution time: %dmin, Satisfaction: %d/5",
			resolutionMinutes, satisfaction),
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("%w: record routing outcome: %v", contractx.ErrPersistence, err)
	}
	return nil
}

func (r *Router) appendSystemLog(ctx context.Context, callID, content string) {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: RoutingHandlerID,
		EntryType: storex.EntrySystem,
		Content:   content,
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("failed to append routing log entry")
	}
}

func renderContact(contact contractx.ContactInfo) string {
	if contact.Phone == "" && contact.Name == "" {
		return "Customer info: Not provided"
	}
	return fmt.Sprintf("Customer info: phone=%s name=%s", contact.Phone, contact.Name)
}
