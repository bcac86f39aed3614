package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

func TestResolveSuccess(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_res01")
	gw := &fakeGateway{payloads: []string{`{
		"response": "Please restart your modem and wait two minutes.",
		"action_needed": "follow_up",
		"escalation_required": false,
		"sentiment_detected": "frustrated",
		"next_steps": "Verify the connection light turns green"
	}`}}
	resolver := NewResolver(gw, st, zerolog.Nop())

	result, err := resolver.Resolve(context.Background(), "call_res01", "internet still down", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Response != "Please restart your modem and wait two minutes." {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if result.EscalationRequired || result.Fallback {
		t.Fatalf("unexpected control flags: %+v", result)
	}
	if result.SentimentDetected != "frustrated" {
		t.Fatalf("unexpected sentiment: %q", result.SentimentDetected)
	}

	logs, err := st.LogsByCall(context.Background(), "call_res01")
	if err != nil {
		t.Fatalf("LogsByCall() error = %v", err)
	}
	last := logs[len(logs)-1]
	if last.EntryType != storex.EntryAgent || last.HandlerID != ResolutionHandlerID {
		t.Fatalf("expected an agent reply entry, got %+v", last)
	}
}

func TestResolveFeedsHistoryWindow(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_res02")
	gw := &fakeGateway{payloads: []string{`{"response": "Understood."}`}}
	resolver := NewResolver(gw, st, zerolog.Nop())

	history := make([]contractx.Message, 8)
	for i := range history {
		history[i] = contractx.Message{Origin: contractx.OriginCustomer, Content: strings.Repeat("x", i+1)}
	}
	if _, err := resolver.Resolve(context.Background(), "call_res02", "anything new?", history); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	req := gw.requests[0]
	// Only the trailing five history messages reach the prompt.
	if strings.Contains(req.Context, "customer: xx\n") {
		t.Fatalf("history window leaked older entries: %q", req.Context)
	}
	if !strings.Contains(req.Context, "customer: xxxx\n") {
		t.Fatalf("expected trailing history in context: %q", req.Context)
	}
}

func TestResolveGatewayFailureEscalates(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_res03")
	gw := &fakeGateway{err: errors.New("deadline exceeded")}
	resolver := NewResolver(gw, st, zerolog.Nop())

	result, err := resolver.Resolve(context.Background(), "call_res03", "hello?", nil)
	if err != nil {
		t.Fatalf("Resolve() must absorb inference failures, got %v", err)
	}
	if result.Response != "I apologize for the technical difficulty. Let me connect you with a supervisor who can better assist you." {
		t.Fatalf("unexpected fallback reply: %q", result.Response)
	}
	if !result.EscalationRequired || result.ActionNeeded != "escalate_to_supervisor" || !result.Fallback {
		t.Fatalf("unexpected control flags: %+v", result)
	}
}

func TestResolveEmptyResponseTreatedAsFallback(t *testing.T) {
	t.Parallel()

	st := storex.NewMemoryStore()
	mustCreateCall(t, st, "call_res04")
	gw := &fakeGateway{payloads: []string{`{"response": "   "}`}}
	resolver := NewResolver(gw, st, zerolog.Nop())

	result, err := resolver.Resolve(context.Background(), "call_res04", "hello?", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !result.Fallback || !result.EscalationRequired {
		t.Fatalf("blank reply must degrade to fallback, got %+v", result)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{payloads: []string{`{
			"sentiment": "negative",
			"emotion": "angry",
			"confidence": 0.92,
			"urgency_level": "high"
		}`}}
		resolver := NewResolver(gw, storex.NewMemoryStore(), zerolog.Nop())

		analysis, err := resolver.AnalyzeSentiment(context.Background(), "this is unacceptable")
		if err != nil {
			t.Fatalf("AnalyzeSentiment() error = %v", err)
		}
		if analysis.Sentiment != "negative" || analysis.UrgencyLevel != "high" {
			t.Fatalf("unexpected analysis: %+v", analysis)
		}
	})

	t.Run("gateway failure degrades to neutral", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{err: errors.New("gateway down")}
		resolver := NewResolver(gw, storex.NewMemoryStore(), zerolog.Nop())

		analysis, err := resolver.AnalyzeSentiment(context.Background(), "hello")
		if err != nil {
			t.Fatalf("AnalyzeSentiment() must absorb failures, got %v", err)
		}
		if analysis.Sentiment != "neutral" || analysis.Confidence != 0.5 || analysis.UrgencyLevel != "medium" {
			t.Fatalf("unexpected neutral fallback: %+v", analysis)
		}
	})
}
