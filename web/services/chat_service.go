package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docchat/database"
	apperrors "docchat/errors"
	"docchat/prompts"
	"docchat/web/types"

	"go.uber.org/zap"
)

// LLM generates a completion for a single prompt.
type LLM interface {
	Chat(ctx context.Context, model, prompt string) (string, error)
}

type ChatService struct {
	store        database.Store
	llm          LLM
	docs         *DocumentService
	defaultModel string
	logger       *zap.Logger
}

func NewChatService(store database.Store, llm LLM, docs *DocumentService, defaultModel string, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:        store,
		llm:          llm,
		docs:         docs,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Ask answers a question about the document in req.StoreID and records the
// exchange in the store transcript.
func (cs *ChatService) Ask(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return types.ChatResponse{}, apperrors.WrapError(apperrors.ErrInvalidInput, "question is required")
	}
	if req.StoreID == "" {
		return types.ChatResponse{}, apperrors.WrapError(apperrors.ErrInvalidInput, "store_id is required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = cs.defaultModel
	}

	rec, err := cs.store.GetStore(ctx, req.StoreID)
	if err != nil {
		return types.ChatResponse{}, err
	}

	answer, err := cs.generate(ctx, question, rec.Content, model)
	if err != nil {
		return types.ChatResponse{}, err
	}

	now := time.Now()
	if err := cs.store.AppendMessages(ctx, rec.ID,
		types.ChatMessage{Role: types.RoleUser, Content: question, CreatedAt: now},
		types.ChatMessage{Role: types.RoleAssistant, Content: answer, CreatedAt: now},
	); err != nil {
		// The answer is still useful to the caller.
		cs.logger.Warn("Failed to record chat messages",
			zap.String("store_id", rec.ID),
			zap.Error(err))
	}

	cs.logger.Info("Answered question",
		zap.String("store_id", rec.ID),
		zap.String("model", model),
		zap.Int("answer_length", len(answer)))

	return types.ChatResponse{
		Success:  true,
		Answer:   answer,
		Filename: rec.Filename,
	}, nil
}

// History returns the transcript of a store.
func (cs *ChatService) History(ctx context.Context, storeID string) (types.StoreRecord, error) {
	return cs.store.GetStore(ctx, storeID)
}

func (cs *ChatService) generate(ctx context.Context, question, content, model string) (string, error) {
	prompt, err := prompts.BuildDocumentQA(cs.docs.Truncate(content), question)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	answer, err := cs.llm.Chat(ctx, model, prompt)
	if err != nil {
		return "", fmt.Errorf("error generating response: %w", err)
	}
	return answer, nil
}
