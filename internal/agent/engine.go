package agent

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/log"
)

// Request is a single model turn: the persona prompt, the conversation so
// far (the current user message included as the last element), and an
// optional streaming sink.
type Request struct {
	System   string
	Messages []*ai.Message

	// OnTextChunk, when non-nil, receives incremental response text as the
	// model produces it.
	OnTextChunk func(text string)
}

// Result is the model's final answer for a turn. Tool calls the model made
// along the way are observed through the tools recorder, not here.
type Result struct {
	Text string
}

// Engine runs one generation turn. The production implementation wraps
// genkit; tests substitute a scripted fake.
type Engine interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// GenkitEngine drives genkit's agentic loop: the model may call registered
// tools for up to maxTurns rounds before producing its final text.
type GenkitEngine struct {
	g         *genkit.Genkit
	modelName string
	maxTurns  int
	tools     []ai.ToolRef
	logger    log.Logger
}

func NewGenkitEngine(g *genkit.Genkit, modelName string, maxTurns int, tools []ai.ToolRef, logger log.Logger) *GenkitEngine {
	return &GenkitEngine{
		g:         g,
		modelName: modelName,
		maxTurns:  maxTurns,
		tools:     tools,
		logger:    logger,
	}
}

func (e *GenkitEngine) Generate(ctx context.Context, req Request) (*Result, error) {
	// Deep copy before handing messages to genkit: renderMessages mutates
	// message content in place, which races with concurrent turns sharing
	// history objects.
	opts := []ai.GenerateOption{
		ai.WithModelName(e.modelName),
		ai.WithSystem(req.System),
		ai.WithMessages(deepCopyMessages(req.Messages)...),
		ai.WithMaxTurns(e.maxTurns),
	}
	if len(e.tools) > 0 {
		opts = append(opts, ai.WithTools(e.tools...))
	}
	if req.OnTextChunk != nil {
		sink := req.OnTextChunk
		opts = append(opts, ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			if text := chunk.Text(); text != "" {
				sink(text)
			}
			return nil
		}))
	}

	resp, err := genkit.Generate(ctx, e.g, opts...)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("generation complete", "model", e.modelName, "tool_requests", len(resp.ToolRequests()))
	return &Result{Text: resp.Text()}, nil
}

func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		req := *p.ToolRequest
		cp.ToolRequest = &req
	}
	if p.ToolResponse != nil {
		resp := *p.ToolResponse
		cp.ToolResponse = &resp
	}
	return cp
}

func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
