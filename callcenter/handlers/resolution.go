package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	promptx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/prompt"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

// resolutionHistoryWindow is how many trailing history messages feed the
// resolution prompt.
const resolutionHistoryWindow = 5

// fallbackApology is returned verbatim whenever the gateway fails during
// active resolution. The failure itself is treated as an escalation trigger
// so the customer is never left stalled.
const fallbackApology = "I apologize for the technical difficulty. Let me connect you with a supervisor who can better assist you."

// Resolver is the front-line resolution handler.
type Resolver struct {
	gw      contractx.InferenceGateway
	store   storex.Store
	prompts promptx.Set
	log     zerolog.Logger
}

var _ contractx.Resolver = (*Resolver)(nil)

func NewResolver(gw contractx.InferenceGateway, st storex.Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		gw:      gw,
		store:   st,
		prompts: promptx.Load(),
		log:     logger.With().Str("handler", ResolutionHandlerID).Logger(),
	}
}

type resolutionOutput struct {
	Response           string `json:"response"`
	ActionNeeded       string `json:"action_needed"`
	EscalationRequired bool   `json:"escalation_required"`
	SentimentDetected  string `json:"sentiment_detected"`
	NextSteps          string `json:"next_steps"`
}

// Resolve answers the customer utterance against the recent history window.
// Gateway failures return the fixed apology with the escalation flag set;
// Resolve itself never fails on inference errors.
func (r *Resolver) Resolve(ctx context.Context, callID, message string, history []contractx.Message) (contractx.ResolutionResult, error) {
	window := lastN(history, resolutionHistoryWindow)

	var out resolutionOutput
	err := r.gw.Decide(ctx, contractx.InferenceRequest{
		SystemInstructions: r.prompts.Resolution,
		Context:            fmt.Sprintf("Call history:\n%s", renderHistory(window)),
		UserMessage:        fmt.Sprintf("Customer message: %s", message),
	}, &out)
	if err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("resolution inference failed, escalating")
		r.appendLog(ctx, callID, storex.EntrySystem, fmt.Sprintf("Error occurred: %v", err))
		return contractx.ResolutionResult{
			Response:           fallbackApology,
			ActionNeeded:       "escalate_to_supervisor",
			EscalationRequired: true,
			Fallback:           true,
		}, nil
	}

	result := contractx.ResolutionResult{
		Response:           strings.TrimSpace(out.Response),
		ActionNeeded:       strings.TrimSpace(out.ActionNeeded),
		EscalationRequired: out.EscalationRequired,
		SentimentDetected:  strings.TrimSpace(out.SentimentDetected),
		NextSteps:          strings.TrimSpace(out.NextSteps),
	}
	if result.Response == "" {
		result.Response = fallbackApology
		result.ActionNeeded = "escalate_to_supervisor"
		result.EscalationRequired = true
		result.Fallback = true
	}

	r.appendLog(ctx, callID, storex.EntryAgent, result.Response)
	return result, nil
}

// AnalyzeSentiment runs a standalone sentiment probe over one message. A
// gateway failure degrades to a neutral medium-urgency reading.
func (r *Resolver) AnalyzeSentiment(ctx context.Context, message string) (contractx.SentimentAnalysis, error) {
	var out contractx.SentimentAnalysis
	err := r.gw.Decide(ctx, contractx.InferenceRequest{
		SystemInstructions: r.prompts.Sentiment,
		UserMessage:        message,
	}, &out)
	if err != nil {
		r.log.Debug().Err(err).Msg("sentiment inference failed, returning neutral")
		return contractx.SentimentAnalysis{
			Sentiment:    "neutral",
			Emotion:      "neutral",
			Confidence:   0.5,
			UrgencyLevel: "medium",
		}, nil
	}
	return out, nil
}

func (r *Resolver) appendLog(ctx context.Context, callID, entryType, content string) {
	entry := &storex.CallLogEntry{
		CallID:    callID,
		HandlerID: ResolutionHandlerID,
		EntryType: entryType,
		Content:   content,
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.log.Warn().Err(err).Str("call_id", callID).Msg("failed to append resolution log entry")
	}
}
