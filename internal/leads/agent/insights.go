// Package agent runs the ADK-based lead insight narrator. The agent is
// backed by the gateway's model adapter so every run is budgeted and
// ledgered like any other model call.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	appName = "lead_insights"

	instruction = "You are a real-estate CRM assistant. Given a lead profile, " +
		"write a short narrative (3-5 sentences) covering what the lead wants, " +
		"how engaged they appear, and the recommended next step. Plain text only."
)

// Narrator generates lead insight narratives through an ADK llmagent.
type Narrator struct {
	runner         *runner.Runner
	sessionService session.Service
	log            *logger.Logger
}

// NewNarrator builds the insight agent over the given model.
func NewNarrator(llm model.LLM, log *logger.Logger) (*Narrator, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "LeadInsights",
		Model:       llm,
		Description: "Summarizes a real-estate lead into an actionable narrative.",
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("create insight agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create insight runner: %w", err)
	}

	return &Narrator{runner: r, sessionService: sessionService, log: log}, nil
}

// Narrate runs the agent over the lead profile and returns the narrative.
func (n *Narrator) Narrate(ctx context.Context, lead domain.Lead) (string, error) {
	profile, err := json.Marshal(map[string]any{
		"name":        lead.Name,
		"leadType":    lead.LeadType,
		"source":      lead.Source,
		"preferences": lead.Preferences,
	})
	if err != nil {
		return "", fmt.Errorf("encode lead profile: %w", err)
	}

	userID := "insights-" + lead.ID.String()
	sessionID := uuid.New().String()
	if _, err := n.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("create insight session: %w", err)
	}
	defer func() {
		deleteReq := &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		}
		if deleteErr := n.sessionService.Delete(ctx, deleteReq); deleteErr != nil {
			n.log.Warn("failed to delete insight session", "session_id", sessionID, "error", deleteErr)
		}
	}()

	message := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: string(profile)}},
	}

	var output strings.Builder
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}
	for event, err := range n.runner.Run(ctx, userID, sessionID, message, runConfig) {
		if err != nil {
			return "", fmt.Errorf("insight run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			output.WriteString(part.Text)
		}
	}

	return strings.TrimSpace(output.String()), nil
}
