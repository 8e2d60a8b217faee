package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

const historyLimit = 10

// Generator produces the next assistant turn of a conversation.
type Generator interface {
	Generate(ctx context.Context, history []chat.Message, query string) (string, error)
}

// Service runs a prompt + chat model chain.
type Service struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	system string
	log    zerolog.Logger
}

// NewService compiles the chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, systemPrompt string) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:  runnable,
		system: systemPrompt,
		log:    logger.For("ai"),
	}, nil
}

// Generate answers query given the earlier turns.
func (s *Service) Generate(ctx context.Context, history []chat.Message, query string) (string, error) {
	input := map[string]any{
		"system":  s.system,
		"history": buildHistoryMessages(history),
		"query":   query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.log.Debug().Int("history", len(history)).Int("length", len(response.Content)).Msg("generated response")
	return response.Content, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
