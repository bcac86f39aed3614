package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

func newEscalator(t *testing.T, gw contractx.InferenceGateway, st storex.Store) *Escalator {
	t.Helper()
	return NewEscalator(gw, st, zerolog.Nop())
}

func TestEscalateRaisesPriorityBySeverity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		severity string
		want     int
	}{
		{"low", 2},
		{"medium", 2},
		{"high", 3},
		{"critical", 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.severity, func(t *testing.T) {
			t.Parallel()
			st := storex.NewMemoryStore()
			mustCreateCall(t, st, "call_esc_"+tc.severity)
			gw := &fakeGateway{payloads: []string{`{
				"escalation_category": "technical",
				"severity_level": "` + tc.severity + `",
				"supervisor_response": "I will handle this personally."
			}`}}
			esc := newEscalator(t, gw, st)

			result, err := esc.Escalate(context.Background(), "call_esc_"+tc.severity, "customer_request")
			if err != nil {
				t.Fatalf("Escalate() error = %v", err)
			}
			if result.SeverityLevel != tc.severity {
				t.Fatalf("unexpected severity: %q", result.SeverityLevel)
			}

			call, err := st.CallByID(context.Background(), "call_esc_"+tc.severity)
			if err != nil {
				t.Fatalf("CallByID() error = %v", err)
			}
			if call.Priority != tc.want {
				t.Fatalf("severity %s: priority = %d, want %d", tc.severity, call.Priority, tc.want)
			}
		})
	}
}

func TestEscalateNeverLowersPriority(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_esc10")
	if err := st.RaisePriority(context.Background(), "call_esc10", 4); err != nil {
		t.Fatalf("RaisePriority() error = %v", err)
	}
	gw := &fakeGateway{payloads: []string{`{"severity_level": "high", "supervisor_response": "On it."}`}}
	esc := newEscalator(t, gw, st)

	if _, err := esc.Escalate(context.Background(), "call_esc10", "customer_request"); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	call, err := st.CallByID(context.Background(), "call_esc10")
	if err != nil {
		t.Fatalf("CallByID() error = %v", err)
	}
	if call.Priority != 4 {
		t.Fatalf("priority must not decrease, got %d", call.Priority)
	}
}

func TestEscalateUnknownSeverityDefaultsToMedium(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_esc11")
	gw := &fakeGateway{payloads: []string{`{"severity_level": "apocalyptic", "supervisor_response": "Reviewing."}`}}
	esc := newEscalator(t, gw, st)

	result, err := esc.Escalate(context.Background(), "call_esc11", "customer_request")
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if result.SeverityLevel != contractx.SeverityMedium {
		t.Fatalf("unexpected severity: %q", result.SeverityLevel)
	}
	if result.SupervisorTakeover {
		t.Fatal("medium severity must not force takeover")
	}
}

func TestEscalateGatewayFailureTakesOver(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_esc12")
	gw := &fakeGateway{err: errors.New("gateway down")}
	esc := newEscalator(t, gw, st)

	result, err := esc.Escalate(context.Background(), "call_esc12", "customer_request")
	if err != nil {
		t.Fatalf("Escalate() must absorb inference failures, got %v", err)
	}
	if !result.SupervisorTakeover || !result.Fallback {
		t.Fatalf("unexpected fallback result: %+v", result)
	}
	if !strings.HasPrefix(result.SupervisorResponse, "I apologize for the issue you're experiencing.") {
		t.Fatalf("unexpected fallback reply: %q", result.SupervisorResponse)
	}
	if result.SeverityLevel != contractx.SeverityMedium {
		t.Fatalf("fallback severity must be medium, got %q", result.SeverityLevel)
	}

	call, err := st.CallByID(context.Background(), "call_esc12")
	if err != nil {
		t.Fatalf("CallByID() error = %v", err)
	}
	if call.Priority != 2 {
		t.Fatalf("fallback must not touch priority, got %d", call.Priority)
	}
}

func TestEscalateFeedsRecentLogWindow(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_esc13")
	for i := 0; i < 15; i++ {
		err := st.AppendLog(context.Background(), &storex.CallLogEntry{
			CallID:    "call_esc13",
			HandlerID: SystemHandlerID,
			EntryType: storex.EntryCustomer,
			Content:   strings.Repeat("y", i+1),
		})
		if err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
	}
	gw := &fakeGateway{payloads: []string{`{"severity_level": "low", "supervisor_response": "Noted."}`}}
	esc := newEscalator(t, gw, st)

	if _, err := esc.Escalate(context.Background(), "call_esc13", "customer_request"); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}

	req := gw.requests[0]
	if strings.Contains(req.Context, "customer: yyy\n") {
		t.Fatalf("log window leaked older entries: %q", req.Context)
	}
	if !strings.Contains(req.Context, "customer: yyyyyyyy\n") {
		t.Fatalf("expected trailing log entries in context: %q", req.Context)
	}
}

func TestQualityReviewWritesMetric(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_qr01")
	entries := []storex.CallLogEntry{
		{CallID: "call_qr01", HandlerID: SystemHandlerID, EntryType: storex.EntrySystem, Content: "Call initiated - Customer: +1555"},
		{CallID: "call_qr01", HandlerID: SystemHandlerID, EntryType: storex.EntryCustomer, Content: "my bill is wrong"},
		{CallID: "call_qr01", HandlerID: ResolutionHandlerID, EntryType: storex.EntryAgent, Content: "Let me check that for you."},
	}
	for i := range entries {
		if err := st.AppendLog(context.Background(), &entries[i]); err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
	}

	gw := &fakeGateway{payloads: []string{`{
		"overall_quality_score": 4,
		"resolution_effectiveness": 4,
		"customer_satisfaction_indicators": "positive",
		"areas_for_improvement": ["faster verification"]
	}`}}
	esc := newEscalator(t, gw, st)

	review, err := esc.QualityReview(context.Background(), "call_qr01")
	if err != nil {
		t.Fatalf("QualityReview() error = %v", err)
	}
	if review.QualityScore != 4 || review.Satisfaction != 5 || review.ResolutionStatus != "completed" {
		t.Fatalf("unexpected review: %+v", review)
	}
	if !strings.Contains(review.Notes, "faster verification") {
		t.Fatalf("unexpected notes: %q", review.Notes)
	}

	// System entries stay out of the scored transcript.
	if strings.Contains(gw.requests[0].UserMessage, "Call initiated") {
		t.Fatalf("system entries leaked into review input: %q", gw.requests[0].UserMessage)
	}

	metrics, err := st.QualityMetricsSince(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("QualityMetricsSince() error = %v", err)
	}
	if len(metrics) != 1 || metrics[0].CallID != "call_qr01" || metrics[0].CustomerSatisfaction != 5 {
		t.Fatalf("unexpected stored metric: %+v", metrics)
	}
}

func TestQualityReviewMapsLowEffectiveness(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_qr02")
	gw := &fakeGateway{payloads: []string{`{
		"overall_quality_score": 9,
		"resolution_effectiveness": 2,
		"customer_satisfaction_indicators": "negative"
	}`}}
	esc := newEscalator(t, gw, st)

	review, err := esc.QualityReview(context.Background(), "call_qr02")
	if err != nil {
		t.Fatalf("QualityReview() error = %v", err)
	}
	if review.QualityScore != 5 {
		t.Fatalf("score must clamp to 5, got %d", review.QualityScore)
	}
	if review.ResolutionStatus != "needs_follow_up" {
		t.Fatalf("low effectiveness must map to needs_follow_up, got %q", review.ResolutionStatus)
	}
	if review.Satisfaction != 1 {
		t.Fatalf("negative indicator must map to 1, got %d", review.Satisfaction)
	}
}

func TestQualityReviewGatewayFailurePropagates(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_qr03")
	gw := &fakeGateway{err: errors.New("gateway down")}
	esc := newEscalator(t, gw, st)

	if _, err := esc.QualityReview(context.Background(), "call_qr03"); !contractx.IsInferenceFailure(err) {
		t.Fatalf("expected an inference failure, got %v", err)
	}
	metrics, err := st.QualityMetricsSince(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("QualityMetricsSince() error = %v", err)
	}
	if len(metrics) != 0 {
		t.Fatalf("no metric must be written on failure, got %d", len(metrics))
	}
}

func TestPerformanceReport(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	for i, callID := range []string{"call_pr1", "call_pr2"} {
		mustCreateCall(t, st, callID)
		err := st.InsertQualityMetric(context.Background(), &storex.QualityMetric{
			CallID:               callID,
			HandlerID:            EscalationHandlerID,
			QualityScore:         4 + i%2,
			ResolutionStatus:     "completed",
			CustomerSatisfaction: 5,
		})
		if err != nil {
			t.Fatalf("InsertQualityMetric() error = %v", err)
		}
	}
	esc := newEscalator(t, &fakeGateway{}, st)

	report, err := esc.PerformanceReport(context.Background(), "week")
	if err != nil {
		t.Fatalf("PerformanceReport() error = %v", err)
	}
	if report.Period != "week" {
		t.Fatalf("unexpected period: %q", report.Period)
	}
	if report.Summary.TotalWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", report.Summary.TotalWorkers)
	}
	if report.Summary.AvgQualityScore != 4.5 || report.Summary.AvgSatisfaction != 5 {
		t.Fatalf("unexpected averages: %+v", report.Summary)
	}
	if report.Summary.TopPerformer != "agent_003" {
		t.Fatalf("expected top performer by total calls, got %q", report.Summary.TopPerformer)
	}

	// Fewer than five metrics in the period triggers the volume note.
	perf := report.Workers["agent_001"]
	found := false
	for _, rec := range perf.Recommendations {
		if strings.Contains(rec, "volume") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a volume recommendation, got %+v", perf.Recommendations)
	}
}

func TestPerformanceReportUnknownPeriodDefaultsToToday(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	esc := newEscalator(t, &fakeGateway{}, st)

	report, err := esc.PerformanceReport(context.Background(), "fortnight")
	if err != nil {
		t.Fatalf("PerformanceReport() error = %v", err)
	}
	if report.Period != "today" {
		t.Fatalf("unknown period must default to today, got %q", report.Period)
	}
}
