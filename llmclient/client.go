package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"docchat/config"
	apperrors "docchat/errors"
	"docchat/web/types"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrAPIKeyMissing is returned when no OpenRouter API key is configured.
	ErrAPIKeyMissing = errors.New("API key not configured")

	// ErrRequestTimeout is returned when the upstream call timed out.
	ErrRequestTimeout = errors.New("Request timeout")
)

type Client struct {
	cfg        *config.Config
	api        *openai.Client
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenRouterAPIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.OpenRouterBaseURL, "/")
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.LLMRequestTimeout}

	return &Client{
		cfg:        cfg,
		api:        openai.NewClientWithConfig(clientConfig),
		httpClient: &http.Client{Timeout: cfg.ModelsRequestTimeout},
		logger:     logger,
	}
}

// Chat sends prompt as a single user message and returns the trimmed answer.
func (c *Client) Chat(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", apperrors.WrapError(apperrors.ErrLLMCommunication, ErrAPIKeyMissing.Error())
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("Chat completion failed", zap.String("model", model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", apperrors.ErrLLMCommunication, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", apperrors.ErrLLMCommunication)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ListModels fetches the models available to the configured API key.
func (c *Client) ListModels(ctx context.Context) ([]types.Model, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		c.logger.Error("API key not configured")
		return nil, ErrAPIKeyMissing
	}

	url := strings.TrimRight(c.cfg.OpenRouterBaseURL, "/") + "/models/user"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)

	c.logger.Debug("Requesting model list", zap.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("Model list request timed out", zap.Error(err))
			return nil, ErrRequestTimeout
		}
		c.logger.Error("Model list request failed", zap.Error(err))
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var mr types.ModelsResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	c.logger.Info("Received models", zap.Int("count", len(mr.Data)))
	return mr.Data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
