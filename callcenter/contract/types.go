package contract

import "time"

// HandlerType identifies which role currently owns a live call.
type HandlerType string

const (
	HandlerRouting    HandlerType = "routing"
	HandlerResolution HandlerType = "resolution"
	HandlerEscalation HandlerType = "escalation"
)

// MessageOrigin distinguishes customer utterances from handler replies in a
// session's in-memory history.
type MessageOrigin string

const (
	OriginCustomer MessageOrigin = "customer"
	OriginHandler  MessageOrigin = "handler"
)

// Message is one entry in a session's append-only in-memory history.
type Message struct {
	Origin    MessageOrigin `json:"origin"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	HandlerID string        `json:"handler_id,omitempty"`
}

// ContactInfo is the customer identity supplied at call initiation.
type ContactInfo struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

// Severity tiers returned by the escalation handler.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// InferenceRequest is the role/goal/context prompt sent to the gateway.
type InferenceRequest struct {
	SystemInstructions string `json:"system_instructions"`
	Context            string `json:"context,omitempty"`
	UserMessage        string `json:"user_message"`
}

// RoutingDecision is the structured routing output of the gateway.
type RoutingDecision struct {
	Department         string   `json:"department"`
	DepartmentName     string   `json:"department_name"`
	Priority           int      `json:"priority"`
	Complexity         string   `json:"complexity"`
	EstimatedDuration  int      `json:"estimated_duration,omitempty"`
	RequiredSkills     []string `json:"required_skills,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
	ImmediateAttention bool     `json:"immediate_attention,omitempty"`
}

// WorkerSummary is a ranked candidate from the routing engine.
type WorkerSummary struct {
	WorkerID     string `json:"worker_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	CurrentCalls int    `json:"current_calls"`
	TotalCalls   int    `json:"total_calls"`
}

// RoutingResult bundles the routing decision with the ranked worker list.
// Fallback is set when the gateway failed and hard-coded defaults were used.
type RoutingResult struct {
	Decision RoutingDecision `json:"decision"`
	Workers  []WorkerSummary `json:"workers"`
	Fallback bool            `json:"fallback,omitempty"`
}

// ResolutionResult is the front-line handler's reply plus control signals.
type ResolutionResult struct {
	Response           string `json:"response"`
	ActionNeeded       string `json:"action_needed,omitempty"`
	EscalationRequired bool   `json:"escalation_required"`
	SentimentDetected  string `json:"sentiment_detected,omitempty"`
	NextSteps          string `json:"next_steps,omitempty"`
	Fallback           bool   `json:"fallback,omitempty"`
}

// EscalationResult is the supervisor handler's assessment of an escalation.
type EscalationResult struct {
	Category           string `json:"escalation_category,omitempty"`
	SeverityLevel      string `json:"severity_level"`
	RecommendedAction  string `json:"recommended_action,omitempty"`
	ResolutionApproach string `json:"resolution_approach,omitempty"`
	SupervisorResponse string `json:"supervisor_response"`
	FollowUpRequired   bool   `json:"follow_up_required,omitempty"`
	SupervisorTakeover bool   `json:"supervisor_takeover"`
	Fallback           bool   `json:"fallback,omitempty"`
}

// QualityReview is the post-call assessment written to the record store.
type QualityReview struct {
	QualityScore     int    `json:"quality_score"`
	ResolutionStatus string `json:"resolution_status"`
	Satisfaction     int    `json:"customer_satisfaction"`
	Notes            string `json:"notes,omitempty"`
}

// SentimentAnalysis is the standalone sentiment probe output.
type SentimentAnalysis struct {
	Sentiment    string  `json:"sentiment"`
	Emotion      string  `json:"emotion"`
	Confidence   float64 `json:"confidence"`
	UrgencyLevel string  `json:"urgency_level"`
}

// QueueStatus reports live load for one department.
type QueueStatus struct {
	Department       string `json:"department"`
	Name             string `json:"name"`
	ActiveCalls      int    `json:"active_calls"`
	AvailableWorkers int    `json:"available_workers"`
	AvgWaitTime      string `json:"estimated_wait_time,omitempty"`
	Hours            string `json:"department_hours,omitempty"`
}

// CallbackAdvice is the callback recommendation for a held call.
type CallbackAdvice struct {
	Offer         bool   `json:"should_offer_callback"`
	EstimatedWait string `json:"estimated_callback_time,omitempty"`
	QueuePosition int    `json:"current_queue_position,omitempty"`
	Reasoning     string `json:"reasoning,omitempty"`
}

// WorkerPerformance aggregates quality outcomes for one worker.
type WorkerPerformance struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	TotalCalls      int      `json:"total_calls"`
	AvgQualityScore float64  `json:"average_quality_score"`
	Satisfaction    float64  `json:"customer_satisfaction"`
	Status          string   `json:"status"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// PerformanceReport is the supervisor's periodic per-worker report.
type PerformanceReport struct {
	Period     string                       `json:"time_period"`
	ReportedAt time.Time                    `json:"report_date"`
	Workers    map[string]WorkerPerformance `json:"performance_data"`
	Summary    PerformanceSummary           `json:"summary"`
}

// PerformanceSummary is the roll-up across all workers in a report.
type PerformanceSummary struct {
	TotalWorkers    int     `json:"total_workers"`
	TotalCalls      int     `json:"total_calls_handled"`
	AvgQualityScore float64 `json:"average_quality_score"`
	AvgSatisfaction float64 `json:"average_satisfaction"`
	TopPerformer    string  `json:"top_performer,omitempty"`
}
