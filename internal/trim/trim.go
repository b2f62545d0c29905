// Package trim bounds a conversation to a model token budget before a
// completion request is sent. The first and last messages (system prompt and
// the new user message) are mandatory and always kept; history between them
// is dropped oldest-first until the conversation fits, draining to nothing
// when the mandatory pair alone fills the budget.
package trim

import (
	"github.com/vimo-cloud/ragstore/internal/domain"
)

// Per-language budgets reflect how many tokens the deployed models leave
// for the assembled conversation.
const (
	budgetEnglish    = 4096
	budgetVietnamese = 8192
	budgetDefault    = 4096
)

// Chat-format framing overhead, mirroring the OpenAI message encoding:
// every message costs a few tokens of scaffolding and the assistant reply
// is primed with a fixed prefix.
const (
	perMessageOverhead = 3
	replyPrimingCost   = 3
)

// TokenCounter reports how many model tokens a string encodes to.
type TokenCounter interface {
	Count(text string) (int, error)
}

// Trimmer drops the oldest droppable messages until a conversation fits its
// budget.
type Trimmer struct {
	counter TokenCounter
}

// New builds a Trimmer around a token counter.
func New(counter TokenCounter) *Trimmer {
	return &Trimmer{counter: counter}
}

// Budget returns the token budget for a language code.
func Budget(language string) int {
	switch language {
	case "en":
		return budgetEnglish
	case "vi":
		return budgetVietnamese
	default:
		return budgetDefault
	}
}

// Trim takes a full conversation, first message through the newest user
// message, and drops messages between the two endpoints oldest-first until
// the total cost fits the budget for the given language. The endpoints are
// never dropped; when they alone exceed the budget the result is just the
// endpoints, over budget, since both are required for a meaningful request.
func (t *Trimmer) Trim(messages []domain.Message, language string) ([]domain.Message, error) {
	if len(messages) == 0 {
		return messages, nil
	}

	budget := Budget(language)

	costs := make([]int, len(messages))
	total := replyPrimingCost
	for i, m := range messages {
		n, err := t.counter.Count(m.Content)
		if err != nil {
			return nil, err
		}
		costs[i] = perMessageOverhead + n
		total += costs[i]
	}

	if total <= budget || len(messages) <= 2 {
		return messages, nil
	}

	// Index 0 and the last index are fixed; everything between is history.
	drop := 0
	for total > budget && 1+drop < len(messages)-1 {
		total -= costs[1+drop]
		drop++
	}

	out := make([]domain.Message, 0, len(messages)-drop)
	out = append(out, messages[0])
	out = append(out, messages[1+drop:]...)
	return out, nil
}

// Cost returns the total token cost of the messages including framing
// overhead, using the same accounting as Trim.
func (t *Trimmer) Cost(messages []domain.Message) (int, error) {
	total := replyPrimingCost
	for _, m := range messages {
		n, err := t.counter.Count(m.Content)
		if err != nil {
			return 0, err
		}
		total += perMessageOverhead + n
	}
	return total, nil
}
