package impression

import (
	"ai_impression/pkg/prompt"
	"context"
	"crypto/sha256"
	"errors"
	"sync"
)

var errFakeOracle = errors.New("fake oracle down")

// fakeEmbedder 按文本内容生成确定的向量
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failAll   bool
	failTexts map[string]bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failAll || f.failTexts[text] {
		return nil, errFakeOracle
	}
	sum := sha256.Sum256([]byte(text))
	return []float64{float64(sum[0]) + 1, float64(sum[1]) + 1, float64(sum[2]) + 1}, nil
}

type fakeReply func(req *prompt.Request) (string, error)

// fakeCompleter 按模板 ID 返回预设结果并记录请求
type fakeCompleter struct {
	mu       sync.Mutex
	replies  map[string]fakeReply
	calls    map[string]int
	requests []*prompt.Request
	block    map[string]chan struct{}
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{
		replies: make(map[string]fakeReply),
		calls:   make(map[string]int),
		block:   make(map[string]chan struct{}),
	}
}

func (f *fakeCompleter) reply(templateID, text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[templateID] = func(*prompt.Request) (string, error) {
		return text, err
	}
}

func (f *fakeCompleter) replyFunc(templateID string, fn fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[templateID] = fn
}

// blockOn 让该模板的调用阻塞到 ctx 结束
func (f *fakeCompleter) blockOn(templateID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[templateID] = ch
	return ch
}

func (f *fakeCompleter) Complete(ctx context.Context, req *prompt.Request) (string, error) {
	f.mu.Lock()
	f.calls[req.TemplateID]++
	f.requests = append(f.requests, req)
	fn := f.replies[req.TemplateID]
	blocked := f.block[req.TemplateID]
	f.mu.Unlock()

	if blocked != nil {
		select {
		case <-blocked:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn == nil {
		return "", errFakeOracle
	}
	return fn(req)
}

func (f *fakeCompleter) callCount(templateID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[templateID]
}

func (f *fakeCompleter) requestsFor(templateID string) []*prompt.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*prompt.Request
	for _, r := range f.requests {
		if r.TemplateID == templateID {
			out = append(out, r)
		}
	}
	return out
}
