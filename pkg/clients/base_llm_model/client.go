package base_llm_model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	clientNameBaseLLM = "base_llm_model"
)

// Client 基础LLM模型客户端
type Client struct {
	config  *Config
	client  *openai.Client
	limiter *rate.Limiter
}

// NewClient 创建新的LLM客户端
// 必须传入 baseURL, apiKey, modelName 三个参数
func NewClient(baseURL, apiKey, modelName string, opts ...Option) *Client {
	params := ClientParams{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		ModelName: modelName,
	}
	return NewClientWithParams(params, opts...)
}

// NewClientWithParams 使用参数结构体创建新的LLM客户端
// params 包含必填的 BaseURL, APIKey, ModelName
func NewClientWithParams(params ClientParams, opts ...Option) *Client {
	config := DefaultConfig()
	config.BaseURL = params.BaseURL
	config.APIKey = params.APIKey
	config.ModelName = params.ModelName

	for _, opt := range opts {
		opt(config)
	}

	return NewClientWithConfig(config)
}

// NewClientWithConfig 使用完整配置创建客户端
func NewClientWithConfig(config *Config) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	c := &Client{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c
}

// GetConfig 获取当前配置
func (c *Client) GetConfig() *Config {
	return c.config
}

// PostChatCompletionsNonStream 非流式调用，返回完整响应
func (c *Client) PostChatCompletionsNonStream(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit wait: %w", clientNameBaseLLM, err)
		}
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	request := openai.ChatCompletionRequest{
		Model:       c.config.ModelName,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      false,
	}

	// 仅在 debug 级别时序列化请求
	if log.IsLevelEnabled(log.DebugLevel) {
		if requestJson, err := json.Marshal(request); err == nil {
			log.Debugf("%s chat completion request: %s", clientNameBaseLLM, requestJson)
		}
	}

	response, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		log.Errorf("%s chat completion error: %v", clientNameBaseLLM, err)
		return nil, err
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		if responseJson, err := json.Marshal(response); err == nil {
			log.Debugf("%s chat completion response: %s", clientNameBaseLLM, responseJson)
		}
	}

	return &response, nil
}

// PostChatCompletionsNonStreamContent 非流式调用，只返回响应内容字符串
func (c *Client) PostChatCompletionsNonStreamContent(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	response, err := c.PostChatCompletionsNonStream(ctx, messages)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		log.Errorf("%s chat completion response has no choices", clientNameBaseLLM)
		return "", fmt.Errorf("chat completion response has no choices")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		log.Warnf("%s chat completion response content is empty", clientNameBaseLLM)
	}

	return content, nil
}

// ChatWithSystemPrompt 使用系统提示词进行对话，systemPrompt 为空时只发送用户消息
func (c *Client) ChatWithSystemPrompt(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if systemPrompt == "" {
		return c.Chat(ctx, userMessage)
	}
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userMessage,
		},
	}
	return c.PostChatCompletionsNonStreamContent(ctx, messages)
}

// Chat 简单对话的便捷方法
func (c *Client) Chat(ctx context.Context, userMessage string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userMessage,
		},
	}
	return c.PostChatCompletionsNonStreamContent(ctx, messages)
}
