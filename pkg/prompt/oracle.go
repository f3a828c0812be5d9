package prompt

import (
	"context"
	"fmt"
	"strings"
)

// Request 一次模型调用，Template 为本次执行读取到的模板正文
type Request struct {
	TemplateID string
	Template   string
	Variables  map[string]string
}

// Completer 语言模型调用接口
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// ChatClient 对话客户端，base_llm_model.Client 实现了该接口
type ChatClient interface {
	ChatWithSystemPrompt(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// LLMOracle 渲染模板并按模板 ID 选择客户端
type LLMOracle struct {
	defaultClient ChatClient
	clients       map[string]ChatClient
	systemPrompts map[string]string
}

type OracleOption func(*LLMOracle)

// WithTemplateClient 指定某个模板使用单独的客户端
func WithTemplateClient(templateID string, client ChatClient) OracleOption {
	return func(o *LLMOracle) {
		if client != nil {
			o.clients[templateID] = client
		}
	}
}

// WithSystemPrompt 指定某个模板的系统提示词
func WithSystemPrompt(templateID, systemPrompt string) OracleOption {
	return func(o *LLMOracle) {
		o.systemPrompts[templateID] = systemPrompt
	}
}

func NewLLMOracle(defaultClient ChatClient, opts ...OracleOption) *LLMOracle {
	o := &LLMOracle{
		defaultClient: defaultClient,
		clients:       make(map[string]ChatClient),
		systemPrompts: make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *LLMOracle) Complete(ctx context.Context, req *Request) (string, error) {
	if req == nil || strings.TrimSpace(req.Template) == "" {
		return "", fmt.Errorf("empty template for %q", templateID(req))
	}

	client := o.defaultClient
	if c, ok := o.clients[req.TemplateID]; ok {
		client = c
	}
	if client == nil {
		return "", fmt.Errorf("no chat client for template %q", req.TemplateID)
	}

	content, err := client.ChatWithSystemPrompt(ctx, o.systemPrompts[req.TemplateID], Render(req.Template, req.Variables))
	if err != nil {
		return "", fmt.Errorf("complete %s: %w", req.TemplateID, err)
	}
	return content, nil
}

func templateID(req *Request) string {
	if req == nil {
		return ""
	}
	return req.TemplateID
}
