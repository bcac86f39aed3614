package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	promptx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/prompt"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

// escalationHistoryWindow is how many trailing call-log entries feed the
// escalation prompt.
const escalationHistoryWindow = 10

// fallbackTakeover is the supervisor reply used when the gateway fails mid
// escalation. The call is still marked supervisor-handled so a failure never
// silently drops an escalated customer.
const fallbackTakeover = "I apologize for the issue you're experiencing. I'm personally taking over your case to ensure it's resolved properly. Let me review the details and get back to you with a solution."

// Escalator is the supervisor escalation handler plus the post-call quality
// review capability.
type Escalator struct {
	gw      contractx.InferenceGateway
	store   storex.Store
	prompts promptx.Set
	log     zerolog.Logger
	now     func() time.Time
}

var _ contractx.Escalator = (*Escalator)(nil)

func NewEscalator(gw contractx.InferenceGateway, st storex.Store, logger zerolog.Logger) *Escalator {
	return &Escalator{
		gw:      gw,
		store:   st,
		prompts: promptx.Load(),
		log:     logger.With().Str("handler", EscalationHandlerID).Logger(),
		now:     time.Now,
	}
}

type escalationOutput struct {
	EscalationCategory string `json:"escalation_category"`
	SeverityLevel      string `json:"severity_level"`
	RecommendedAction  string `json:"recommended_action"`
	ResolutionApproach string `json:"resolution_approach"`
	FollowUpRequired   bool   `json:"follow_up_required"`
	SupervisorResponse string `json:"supervisor_response"`
}

// Escalate assesses an escalated call against its recent log history. High
// and critical severities raise the stored call priority to 3 and 4; the
// store guarantees the change is one-directional.
func (e *Escalator) Escalate(ctx context.Context, callID, reason string) (contractx.EscalationResult, error) {
	e.appendLog(ctx, callID, storex.EntrySystem, fmt.Sprintf("Escalation received: %s", reason))

	entries, err := e.store.LogsByCall(ctx, callID)
	if err != nil {
		e.log.Warn().Err(err).Str("call_id", callID).Msg("failed to load call history for escalation")
	}
	if len(entries) > escalationHistoryWindow {
		entries = entries[len(entries)-escalationHistoryWindow:]
	}

	var out escalationOutput
	err = e.gw.Decide(ctx, contractx.InferenceRequest{
		SystemInstructions: e.prompts.Escalation,
		Context:            fmt.Sprintf("Recent conversation history:\n%s", renderLogEntries(entries)),
		UserMessage:        fmt.Sprintf("Escalation reason: %s", reason),
	}, &out)
	if err != nil {
		e.log.Warn().Err(err).Str("call_id", callID).Msg("escalation inference failed, supervisor takeover")
		e.appendLog(ctx, callID, storex.EntrySystem, fmt.Sprintf("Error handling escalation: %v", err))
		return contractx.EscalationResult{
			SeverityLevel:      contractx.SeverityMedium,
			SupervisorResponse: fallbackTakeover,
			SupervisorTakeover: true,
			Fallback:           true,
		}, nil
	}

	result := contractx.EscalationResult{
		Category:           strings.TrimSpace(out.EscalationCategory),
		SeverityLevel:      normalizeSeverity(out.SeverityLevel),
		RecommendedAction:  strings.TrimSpace(out.RecommendedAction),
		ResolutionApproach: strings.TrimSpace(out.ResolutionApproach),
		SupervisorResponse: strings.TrimSpace(out.SupervisorResponse),
		FollowUpRequired:   out.FollowUpRequired,
	}
	if result.SupervisorResponse == "" {
		result.SupervisorResponse = "I'm reviewing your case and will provide a resolution."
	}
	result.SupervisorTakeover = result.SeverityLevel == contractx.SeverityHigh ||
		result.SeverityLevel == contractx.SeverityCritical

	e.appendLog(ctx, callID, storex.EntrySupervisor, result.SupervisorResponse)

	if target := priorityForSeverity(result.SeverityLevel); target > 0 {
		if err := e.store.RaisePriority(ctx, callID, target); err != nil {
			e.log.Warn().Err(err).Str("call_id", callID).Int("priority", target).
				Msg("failed to raise call priority")
		}
	}

	e.log.Info().
		Str("call_id", callID).
		Str("severity", result.SeverityLevel).
		Str("category", result.Category).
		Msg("escalation handled")

	return result, nil
}

type qualityOutput struct {
	OverallQualityScore    int      `json:"overall_quality_score"`
	ResolutionEffectivenes int      `json:"resolution_effectiveness"`
	SatisfactionIndicators string   `json:"customer_satisfaction_indicators"`
	AreasForImprovement    []string `json:"areas_for_improvement"`
	PositiveHighlights     []string `json:"positive_highlights"`
}

// QualityReview re-reads the full message history, scores the conversation,
// and writes one QualityMetric record. Invoked once, at call end.
func (e *Escalator) QualityReview(ctx context.Context, callID string) (contractx.QualityReview, error) {
	entries, err := e.store.LogsByCall(ctx, callID)
	if err != nil {
		return contractx.QualityReview{}, fmt.Errorf("%w: load call history: %v", contractx.ErrPersistence, err)
	}

	conversation := make([]storex.CallLogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.EntryType == storex.EntryCustomer || entry.EntryType == storex.EntryAgent ||
			entry.EntryType == storex.EntrySupervisor {
			conversation = append(conversation, entry)
		}
	}

	var out qualityOutput
	if err := e.gw.Decide(ctx, contractx.InferenceRequest{
		SystemInstructions: e.prompts.Quality,
		UserMessage:        renderLogEntries(conversation),
	}, &out); err != nil {
		return contractx.QualityReview{}, err
	}

	review := contractx.QualityReview{
		QualityScore:     clampScore(out.OverallQualityScore),
		Satisfaction:     satisfactionToNumber(out.SatisfactionIndicators),
		ResolutionStatus: "completed",
	}
	if out.ResolutionEffectivenes < 3 {
		review.ResolutionStatus = "needs_follow_up"
	}
	if len(out.AreasForImprovement) > 0 {
		review.Notes = fmt.Sprintf("Areas for improvement: %s", strings.Join(out.AreasForImprovement, "; "))
	}

	metric := &storex.QualityMetric{
		CallID:               callID,
		HandlerID:            EscalationHandlerID,
		QualityScore:         review.QualityScore,
		ResolutionStatus:     review.ResolutionStatus,
		CustomerSatisfaction: review.Satisfaction,
		Notes:                review.Notes,
	}
	if err := e.store.InsertQualityMetric(ctx, metric); err != nil {
		return review, fmt.Errorf("%w: store quality metric: %v", contractx.ErrPersistence, err)
	}
	return review, nil
}

// PerformanceReport aggregates quality outcomes per worker over a period of
// "today", "week", or "month".
func (e *Escalator) PerformanceReport(ctx context.Context, period string) (contractx.PerformanceReport, error) {
	now := e.now().UTC()
	var since time.Time
	switch period {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, 0, -30)
	default:
		period = "today"
		since = now.Truncate(24 * time.Hour)
	}

	agents, err := e.store.Agents(ctx)
	if err != nil {
		return contractx.PerformanceReport{}, fmt.Errorf("%w: list agents: %v", contractx.ErrPersistence, err)
	}
	metrics, err := e.store.QualityMetricsSince(ctx, since)
	if err != nil {
		return contractx.PerformanceReport{}, fmt.Errorf("%w: list quality metrics: %v", contractx.ErrPersistence, err)
	}

	var qualitySum, satisfactionSum float64
	for _, m := range metrics {
		qualitySum += float64(m.QualityScore)
		satisfactionSum += float64(m.CustomerSatisfaction)
	}
	avgQuality, avgSatisfaction := 0.0, 0.0
	if len(metrics) > 0 {
		avgQuality = qualitySum / float64(len(metrics))
		avgSatisfaction = satisfactionSum / float64(len(metrics))
	}

	report := contractx.PerformanceReport{
		Period:     period,
		ReportedAt: now,
		Workers:    make(map[string]contractx.WorkerPerformance, len(agents)),
	}

	totalCalls := 0
	topPerformer := ""
	topCalls := -1
	for _, agent := range agents {
		perf := contractx.WorkerPerformance{
			Name:            agent.Name,
			Role:            agent.Role,
			TotalCalls:      agent.TotalCalls,
			AvgQualityScore: avgQuality,
			Satisfaction:    avgSatisfaction,
			Status:          agent.Status,
		}
		if avgQuality > 0 && avgQuality < 3.5 {
			perf.Recommendations = append(perf.Recommendations,
				"Focus on improving overall call quality and customer interaction")
		}
		if len(metrics) < 5 {
			perf.Recommendations = append(perf.Recommendations,
				"Increase call handling volume and engagement")
		}
		report.Workers[agent.AgentID] = perf
		totalCalls += agent.TotalCalls
		if agent.TotalCalls > topCalls {
			topCalls = agent.TotalCalls
			topPerformer = agent.AgentID
		}
	}

	report.Summary = contractx.PerformanceSummary{
		TotalWorkers:    len(agents),
		TotalCalls:      totalCalls,
		AvgQualityScore: avgQuality,
		AvgSatisfaction: avgSatisfaction,
		TopPerformer:    topPerformer,
	}
	return report, nil
}

func (e *Escalator) appendLog(ctx context.Context, callID, entryType, content string) {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: EscalationHandlerID,
		EntryType: entryType,
		Content:   content,
	}
	if err := e.store.AppendLog(ctx, entry); err != nil {
		e.log.Warn().Err(err).Str("call_id", callID).Msg("failed to append escalation log entry")
	}
}

func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case contractx.SeverityLow:
		return contractx.SeverityLow
	case contractx.SeverityHigh:
		return contractx.SeverityHigh
	case contractx.SeverityCritical:
		return contractx.SeverityCritical
	default:
		return contractx.SeverityMedium
	}
}

func priorityForSeverity(severity string) int {
	switch severity {
	case contractx.SeverityHigh:
		return 3
	case contractx.SeverityCritical:
		return 4
	default:
		return 0
	}
}

func clampScore(score int) int {
	if score < 1 {
		return 3
	}
	if score > 5 {
		return 5
	}
	return score
}

func satisfactionToNumber(indicator string) int {
	switch strings.ToLower(strings.TrimSpace(indicator)) {
	case "positive":
		return 5
	case "negative":
		return 1
	default:
		return 3
	}
}
