package gateway

import (
	"context"
	"iter"
	"strings"

	"realtydesk_backend/platform/ai/openaichat"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Model adapts the gateway to the ADK model.LLM interface so agent runs go
// through the same retry, budget, and ledger path as every other call.
type Model struct {
	gw   *Gateway
	name string
}

// NewModel wraps the gateway for use by ADK agents.
func NewModel(gw *Gateway, name string) *Model {
	return &Model{gw: gw, name: name}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent adapts ADK requests onto the gateway's Invoke path.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		invokeReq := InvokeRequest{
			Model:    m.name,
			Messages: convertContents(req.Contents),
		}
		if req.Config != nil && req.Config.Temperature != nil {
			temp := float64(*req.Config.Temperature)
			invokeReq.Temperature = &temp
		}

		result, err := m.gw.Invoke(ctx, invokeReq)
		if err != nil {
			yield(nil, err)
			return
		}

		yield(&model.LLMResponse{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText(result.Content)},
			},
		}, nil)
	}
}

func convertContents(contents []*genai.Content) []openaichat.Message {
	messages := make([]openaichat.Message, 0, len(contents))
	for _, content := range contents {
		if content == nil {
			continue
		}
		role := "user"
		if content.Role == "model" {
			role = "assistant"
		}

		var text strings.Builder
		for _, part := range content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(part.Text)
		}
		if text.Len() == 0 {
			continue
		}
		messages = append(messages, openaichat.Message{Role: role, Content: text.String()})
	}
	return messages
}
