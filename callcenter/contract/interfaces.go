package contract

import "context"

// InferenceGateway is the external structured-decision service every handler
// calls. Decide sends the prompt and decodes the gateway's JSON object into
// out. A transport failure wraps ErrInference; a malformed or undecodable
// response wraps ErrSchemaViolation. Callers treat both the same.
type InferenceGateway interface {
	Decide(ctx context.Context, req InferenceRequest, out any) error
}

// Router turns an initial customer utterance into a department assignment,
// priority, and a ranked worker list. Route never fails on gateway errors;
// it degrades to the hard-coded fallback decision.
type Router interface {
	Route(ctx context.Context, callID, message string, contact ContactInfo) (RoutingResult, error)
	QueueStatus(ctx context.Context, department string) ([]QueueStatus, error)
	RecommendCallback(ctx context.Context, callID, department string) (CallbackAdvice, error)
	RecordOutcome(ctx context.Context, callID string, resolutionMinutes, satisfaction int) error
}

// Resolver is the front-line handler. History is the session's message
// history; the resolver windows it itself.
type Resolver interface {
	Resolve(ctx context.Context, callID, message string, history []Message) (ResolutionResult, error)
	AnalyzeSentiment(ctx context.Context, message string) (SentimentAnalysis, error)
}

// Escalator is the supervisor handler. Escalate reads its context window from
// the persistent call log. QualityReview is invoked exactly once per call,
// at call end.
type Escalator interface {
	Escalate(ctx context.Context, callID, reason string) (EscalationResult, error)
	QualityReview(ctx context.Context, callID string) (QualityReview, error)
	PerformanceReport(ctx context.Context, period string) (PerformanceReport, error)
}
