package base_llm_model

import "time"

// Config 基础LLM模型配置
type Config struct {
	BaseURL     string        `json:"base_url"`    // API基础地址
	APIKey      string        `json:"api_key"`     // API密钥
	ModelName   string        `json:"model_name"`  // 模型名称
	Temperature float32       `json:"temperature"` // 温度参数，控制输出随机性
	MaxTokens   int           `json:"max_tokens"`  // 最大输出token数
	Timeout     time.Duration `json:"timeout"`     // 单次请求超时，0 表示不限制
	RateLimit   float64       `json:"rate_limit"`  // 每秒请求数上限，0 表示不限制
	RateBurst   int           `json:"rate_burst"`  // 突发请求数
}

// ClientParams 客户端必填参数结构体
type ClientParams struct {
	BaseURL   string `json:"base_url"`   // API基础地址（必填）
	APIKey    string `json:"api_key"`    // API密钥（必填）
	ModelName string `json:"model_name"` // 模型名称（必填）
}

// Option 配置选项函数类型
type Option func(*Config)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Temperature: 0.7,
		MaxTokens:   4096,
		Timeout:     60 * time.Second,
	}
}

// WithBaseURL 设置API基础地址
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithAPIKey 设置API密钥
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithModelName 设置模型名称
func WithModelName(modelName string) Option {
	return func(c *Config) {
		c.ModelName = modelName
	}
}

// WithTemperature 设置温度参数
func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithMaxTokens 设置最大输出token数
func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRateLimit 设置每秒请求数上限
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = perSecond
		c.RateBurst = burst
	}
}
