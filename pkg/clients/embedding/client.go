package embedding

import (
	"ai_impression/config"
	"ai_impression/constant"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxBatchSize 每批最多处理的数量
	MaxBatchSize = 64
	// MaxRetries 最大重试次数
	MaxRetries = 3
	// LRUCacheCapacity LRU 缓存默认容量
	LRUCacheCapacity = constant.DefaultEmbeddingCacheSize
	// OSAPIKey 配置中未设置 api_key 时读取的环境变量
	OSAPIKey = "OPENAI_API_KEY"
)

var (
	instance *Client
	once     sync.Once
	initErr  error
)

// Client Embedding 客户端
type Client struct {
	client       openai.Client
	modelName    string
	cache        *lru.Cache[string, []float64]
	metrics      *Metrics
	retryBackoff func() backoff.BackOff
}

// Metrics 指标统计
type Metrics struct {
	IngestCount      int64         // 实际请求的文本条数
	QueryCount       int64         // 调用次数
	CacheHits        int64         // 缓存命中条数
	Failures         int64         // 重试后仍失败的次数
	EmbeddingLatency time.Duration // embedding 总耗时
	mu               sync.Mutex
}

// GetInstance 获取 Embedding 客户端单例
func GetInstance() (*Client, error) {
	once.Do(func() {
		cfg := config.GetInstance()

		apiKey := cfg.GetStringOrDefault(config.EmbeddingConfigKeyAPIKey, constant.EmptyString)
		if apiKey == constant.EmptyString {
			apiKey = os.Getenv(OSAPIKey)
		}
		if apiKey == constant.EmptyString {
			initErr = fmt.Errorf("%s or %s is required", config.EmbeddingConfigKeyAPIKey, OSAPIKey)
			return
		}

		modelName := cfg.GetString(config.EmbeddingConfigKeyModelName)
		if modelName == constant.EmptyString {
			initErr = fmt.Errorf("%s is required", config.EmbeddingConfigKeyModelName)
			return
		}

		instance, initErr = NewClient(apiKey,
			cfg.GetString(config.EmbeddingConfigKeyBaseURL),
			modelName,
			cfg.GetIntOrDefault(config.EmbeddingConfigKeyCacheSize, LRUCacheCapacity))
	})

	return instance, initErr
}

// NewClient 创建 Embedding 客户端，baseURL 为空时使用官方地址
func NewClient(apiKey, baseURL, modelName string, cacheSize int) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = LRUCacheCapacity
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// 重试由本客户端控制
		option.WithMaxRetries(0),
	}
	// 兼容其他 OpenAI 协议的服务
	if baseURL != constant.EmptyString {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		client:       openai.NewClient(opts...),
		modelName:    modelName,
		cache:        cache,
		metrics:      &Metrics{},
		retryBackoff: defaultBackoff,
	}, nil
}

// defaultBackoff 指数退避：1s, 2s, 4s
func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, MaxRetries-1)
}

// Embed 获取单个文本的向量
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	return c.GetTextEmbedding(ctx, text)
}

// GetTextEmbedding 获取单个文本的 Embedding 向量（带缓存）
func (c *Client) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := c.GetTextEmbeddingBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embeddings[0], nil
}

// GetTextEmbeddingBatch 批量获取文本的 Embedding 向量（带批量切分、重试和缓存）
func (c *Client) GetTextEmbeddingBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	c.metrics.mu.Lock()
	c.metrics.QueryCount++
	c.metrics.mu.Unlock()

	startTime := time.Now()
	defer func() {
		c.metrics.mu.Lock()
		c.metrics.EmbeddingLatency += time.Since(startTime)
		c.metrics.mu.Unlock()
	}()

	// 先查缓存，未命中的按原始下标收集
	result := make([][]float64, len(texts))
	missIndexes := make([]int, 0, len(texts))
	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			result[i] = cached
			continue
		}
		missIndexes = append(missIndexes, i)
	}
	cacheHits := len(texts) - len(missIndexes)

	c.metrics.mu.Lock()
	c.metrics.CacheHits += int64(cacheHits)
	c.metrics.mu.Unlock()

	if len(missIndexes) == 0 {
		log.Debugf("All embeddings retrieved from cache (count: %d)", len(texts))
		return result, nil
	}

	for start := 0; start < len(missIndexes); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(missIndexes) {
			end = len(missIndexes)
		}

		batch := missIndexes[start:end]
		batchTexts := make([]string, len(batch))
		for j, idx := range batch {
			batchTexts[j] = texts[idx]
		}

		embeddings, err := c.getTextEmbeddingBatchWithRetry(ctx, batchTexts)
		if err != nil {
			c.metrics.mu.Lock()
			c.metrics.Failures++
			c.metrics.mu.Unlock()
			return nil, fmt.Errorf("failed to get embeddings for batch %d-%d: %w", start, end, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(batch), len(embeddings))
		}

		for j, idx := range batch {
			result[idx] = embeddings[j]
			c.cache.Add(texts[idx], embeddings[j])
		}
	}

	log.Debugf("Embedding batch completed: total=%d, cache_hits=%d, requests=%d",
		len(texts), cacheHits, len(missIndexes))

	c.metrics.mu.Lock()
	c.metrics.IngestCount += int64(len(missIndexes))
	c.metrics.mu.Unlock()

	return result, nil
}

// getTextEmbeddingBatchWithRetry 带重试机制的批量获取 Embedding，ctx 取消时立即返回
func (c *Client) getTextEmbeddingBatchWithRetry(ctx context.Context, texts []string) ([][]float64, error) {
	var embeddings [][]float64
	attempt := 0

	operation := func() error {
		attempt++
		result, err := c.getTextEmbeddingBatchOnce(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.Errorf("Embedding request failed (attempt %d/%d): %v", attempt, MaxRetries, err)
			return err
		}
		embeddings = result
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warnf("Retrying embedding request (attempt %d/%d) after %v", attempt+1, MaxRetries, wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.retryBackoff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", attempt, err)
	}
	return embeddings, nil
}

// getTextEmbeddingBatchOnce 单次批量获取 Embedding（不重试）
func (c *Client) getTextEmbeddingBatchOnce(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.modelName),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	// 按返回的 index 归位，避免服务端乱序
	result := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(result) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		result[item.Index] = item.Embedding
	}

	return result, nil
}

// GetMetrics 获取指标统计
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()
	return Metrics{
		IngestCount:      c.metrics.IngestCount,
		QueryCount:       c.metrics.QueryCount,
		CacheHits:        c.metrics.CacheHits,
		Failures:         c.metrics.Failures,
		EmbeddingLatency: c.metrics.EmbeddingLatency,
	}
}
