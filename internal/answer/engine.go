// Package answer generates customer replies: retrieve relevant knowledge,
// build the QA prompt with recent conversation history, call the model, and
// normalize the output before it goes anywhere near a customer.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/sellerclaw/internal/guard"
	"github.com/nextlevelbuilder/sellerclaw/internal/providers"
	"github.com/nextlevelbuilder/sellerclaw/internal/retriever"
	"github.com/nextlevelbuilder/sellerclaw/internal/sessions"
)

const systemPromptTemplate = `You are a customer support assistant for an online seller.
Answer the customer's question using ONLY the knowledge below. Be brief, polite, and concrete.
If the knowledge does not cover the question, say you don't know.

Knowledge:
%s`

// historyExchanges is how many recent question/answer pairs go into the prompt.
const historyExchanges = 3

// Searcher is the retrieval dependency of the engine.
type Searcher interface {
	Search(ctx context.Context, query string) ([]retriever.Result, error)
}

// Engine produces guarded replies to customer questions.
type Engine struct {
	provider    providers.Provider
	search      Searcher
	sessions    *sessions.Manager
	guard       *guard.Guard
	model       string
	maxTokens   int
	temperature *float64
}

// NewEngine wires the QA pipeline. model overrides the provider default when
// non-empty.
func NewEngine(provider providers.Provider, search Searcher, mgr *sessions.Manager, g *guard.Guard, model string) *Engine {
	return &Engine{
		provider:  provider,
		search:    search,
		sessions:  mgr,
		guard:     g,
		model:     model,
		maxTokens: 1024,
	}
}

// SetGeneration overrides the completion token limit and sampling temperature.
// A zero maxTokens keeps the default; temperature always applies.
func (e *Engine) SetGeneration(maxTokens int, temperature float64) {
	if maxTokens > 0 {
		e.maxTokens = maxTokens
	}
	e.temperature = &temperature
}

// Answer generates a reply for one customer question. The returned text is
// always safe to send: generation failures and unusable output collapse to
// the guard fallback. The session history records the exchange either way.
func (e *Engine) Answer(ctx context.Context, sessionKey, question string) (string, error) {
	// Run id correlates the retrieval, completion, and delivery log lines.
	runID := uuid.NewString()
	slog.Debug("generating answer", "run_id", runID, "session", sessionKey)

	results, err := e.search.Search(ctx, question)
	if err != nil {
		slog.Warn("knowledge retrieval failed", "run_id", runID, "session", sessionKey, "error", err)
		// Proceed without context; the model will answer from the prompt rules.
	}

	messages := e.buildMessages(sessionKey, question, results)

	resp, err := e.provider.Chat(ctx, providers.ChatRequest{
		Messages:    messages,
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return e.guard.Fallback(), fmt.Errorf("chat completion: %w", err)
	}

	reply := e.guard.Normalize(resp.Content)
	if reply == e.guard.Fallback() {
		// The question stays effectively unanswered; keep a trace for review.
		slog.Warn("generated reply rejected, using fallback",
			"run_id", runID, "session", sessionKey,
			"question_preview", preview(question, 80))
	}

	e.sessions.AddExchange(sessionKey, question, reply)
	if err := e.sessions.Save(sessionKey); err != nil {
		slog.Warn("session save failed", "run_id", runID, "session", sessionKey, "error", err)
	}

	return reply, nil
}

func (e *Engine) buildMessages(sessionKey, question string, results []retriever.Result) []providers.Message {
	knowledge := retriever.FormatContext(results)
	if strings.TrimSpace(knowledge) == "" {
		knowledge = "(no relevant knowledge found)"
	}

	messages := []providers.Message{
		{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, knowledge)},
	}

	history := e.sessions.GetHistory(sessionKey)
	if keep := historyExchanges * 2; len(history) > keep {
		history = history[len(history)-keep:]
	}
	messages = append(messages, history...)

	return append(messages, providers.Message{Role: "user", Content: question})
}

func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
