package factory

import (
	"ai_impression/config"
	"ai_impression/constant"
	"ai_impression/pkg/clients/base_llm_model"
	"ai_impression/pkg/clients/embedding"
	"ai_impression/pkg/clients/redis"
	"ai_impression/pkg/locker"
	"ai_impression/pkg/metrics"
	"ai_impression/pkg/prompt"
	"ai_impression/pkg/tools"
	"ai_impression/repository/factory"
	"ai_impression/repository/xormimplement"
	"ai_impression/service/impression"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var instance *Factory
var once sync.Once

// Factory 服务工厂
type Factory struct {
	repositoryFactory factory.Factory
	impressionService *impression.Service
	dispatcher        *impression.Dispatcher
	metrics           *metrics.Metrics
}

// NewFactory 使用已有依赖创建服务工厂
func NewFactory(repositoryFactory factory.Factory, embedder impression.Embedder, completer prompt.Completer,
	userLocker locker.Locker, m *metrics.Metrics, dispatcherConfig *tools.Config, userParallelism int,
	pipelineTimeout time.Duration, opts ...impression.Option) *Factory {
	opts = append([]impression.Option{impression.WithMetrics(m)}, opts...)
	service := impression.NewService(repositoryFactory, embedder, completer, userLocker, opts...)
	return &Factory{
		repositoryFactory: repositoryFactory,
		impressionService: service,
		dispatcher:        impression.NewDispatcher(service, dispatcherConfig, userParallelism, pipelineTimeout),
		metrics:           m,
	}
}

// 单例模式，首次调用时按全局配置创建，失败时 panic
func GetServiceFactory() *Factory {
	once.Do(func() {
		if instance != nil {
			return
		}
		f, err := newFactoryFromConfig()
		if err != nil {
			panic(err)
		}
		instance = f
	})
	return instance
}

// SetServiceFactory 替换全局服务工厂，需在 GetServiceFactory 之前调用
func SetServiceFactory(f *Factory) {
	instance = f
}

func newFactoryFromConfig() (*Factory, error) {
	cfg := config.GetInstance()

	repositoryFactory := xormimplement.GetRepositoryFactoryInstance()
	m := metrics.New()
	if err := m.RegisterDBStats(repositoryFactory.DB(), cfg.GetString(config.BaseDbXormName)); err != nil {
		log.Warnf("register db stats collector error: %v", err)
	}

	embeddingClient, err := embedding.GetInstance()
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding client: %w", err)
	}

	userLocker, err := newLocker()
	if err != nil {
		return nil, err
	}

	dispatcherConfig := &tools.Config{
		MaxThread:                cfg.GetIntOrDefault(config.DispatcherMaxThread, constant.DefaultDispatcherMaxThread),
		CacheNum:                 cfg.GetIntOrDefault(config.DispatcherCacheNum, constant.DefaultDispatcherCacheNum),
		TimeIntervalMilliSeconds: int64(cfg.GetIntOrDefault(config.DispatcherIntervalMilliSeconds, constant.DefaultDispatcherIntervalMs)),
	}
	pipelineTimeout := time.Duration(cfg.GetIntOrDefault(config.DispatcherPipelineTimeoutSeconds, constant.DefaultPipelineTimeoutSeconds)) * time.Second

	return NewFactory(repositoryFactory, embeddingClient, newOracle(), userLocker, m, dispatcherConfig,
		cfg.GetIntOrDefault(config.DispatcherUserParallelism, constant.DefaultUserParallelism), pipelineTimeout), nil
}

// newOracle 主模型负责印象和好感度，启用权重模型时权重评估走单独的模型
func newOracle() *prompt.LLMOracle {
	cfg := config.GetInstance()

	mainClient := base_llm_model.NewClient(
		cfg.GetString(config.ClientChatModelAddr),
		cfg.GetString(config.ClientChatModelAPIKey),
		cfg.GetString(config.ClientChatModelModel),
		base_llm_model.WithTemperature(float32(cfg.GetFloat64OrDefault(config.ClientChatModelTemperature, 0.3))),
		base_llm_model.WithMaxTokens(cfg.GetIntOrDefault(config.ClientChatModelMaxTokens, 1024)),
		base_llm_model.WithTimeout(time.Duration(cfg.GetIntOrDefault(config.ClientChatModelTimeout, 60))*time.Second),
		base_llm_model.WithRateLimit(cfg.GetFloat64OrDefault(config.ClientChatModelRateLimit, 0), cfg.GetIntOrDefault(config.ClientChatModelRateBurst, 1)),
	)

	opts := []prompt.OracleOption{
		prompt.WithSystemPrompt(constant.PromptIDWeightEvaluation, constant.WeightSystemPrompt),
		prompt.WithSystemPrompt(constant.PromptIDImpression, constant.ImpressionSystemPrompt),
		prompt.WithSystemPrompt(constant.PromptIDAffection, constant.AffectionSystemPrompt),
	}
	if cfg.GetBool(config.ClientWeightModelEnabled) {
		apiKey := cfg.GetStringOrDefault(config.ClientWeightModelAPIKey, constant.EmptyString)
		if apiKey == constant.EmptyString {
			apiKey = cfg.GetString(config.ClientChatModelAPIKey)
		}
		weightClient := base_llm_model.NewClient(
			cfg.GetString(config.ClientWeightModelAddr),
			apiKey,
			cfg.GetString(config.ClientWeightModelModel),
			base_llm_model.WithTemperature(0),
			base_llm_model.WithMaxTokens(256),
		)
		opts = append(opts, prompt.WithTemplateClient(constant.PromptIDWeightEvaluation, weightClient))
		log.Infof("weight evaluation uses dedicated model %s", cfg.GetString(config.ClientWeightModelModel))
	}
	return prompt.NewLLMOracle(mainClient, opts...)
}

func newLocker() (locker.Locker, error) {
	cfg := config.GetInstance()
	lockerType := constant.LockerType(cfg.GetStringOrDefault(config.LockerType, string(constant.LockerTypeLocal)))
	switch lockerType {
	case constant.LockerTypeLocal:
		return locker.NewLocalLocker(), nil
	case constant.LockerTypeRedis:
		client, err := redis.GetInstance()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client: %w", err)
		}
		ttl := time.Duration(cfg.GetIntOrDefault(config.LockerTTLSeconds, constant.DefaultLockTTLSeconds)) * time.Second
		return locker.NewRedisLocker(client.Client, ttl, constant.DefaultLockRetryIntervalMs*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("%w: unknown locker type %q", config.ErrInvalidConfiguration, lockerType)
	}
}

// NewImpressionService 获取印象服务
func (f *Factory) NewImpressionService() *impression.Service {
	return f.impressionService
}

// Dispatcher 异步分发器
func (f *Factory) Dispatcher() *impression.Dispatcher {
	return f.dispatcher
}

func (f *Factory) Metrics() *metrics.Metrics {
	return f.metrics
}
