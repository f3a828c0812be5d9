//nolint:typecheck
package config

import (
	"ai_impression/constant"
	"ai_impression/pkg/file"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	OSConfigPath      = "CONFIG_PATH"
	DefaultConfigName = "config.yaml"
	TypeYaml          = "yaml"

	AppLogLevel        = "app.log.level"
	AppLogReportcaller = "app.log.reportcaller"
	AppHost            = "app.host"

	BaseDbXormType     = "base.db.xorm.type"
	BaseDbXormUsername = "base.db.xorm.username"
	BaseDbXormPassword = "base.db.xorm.password"
	BaseDbXormHost     = "base.db.xorm.host"
	BaseDbXormPort     = "base.db.xorm.port"
	BaseDbXormName     = "base.db.xorm.name"
	BaseDbXormShowsql  = "base.db.xorm.showsql"

	// 大模型调用配置
	ClientChatModelAddr        = "clients.llmModel.addr"
	ClientChatModelModel       = "clients.llmModel.model"
	ClientChatModelAPIKey      = "clients.llmModel.apiKey"
	ClientChatModelTemperature = "clients.llmModel.temperature"
	ClientChatModelMaxTokens   = "clients.llmModel.maxTokens"
	ClientChatModelTimeout     = "clients.llmModel.timeoutSeconds"
	ClientChatModelRateLimit   = "clients.llmModel.rateLimit"
	ClientChatModelRateBurst   = "clients.llmModel.rateBurst"

	// 权重评估专用模型，未启用时复用主模型
	ClientWeightModelEnabled = "clients.weightModel.enabled"
	ClientWeightModelAddr    = "clients.weightModel.addr"
	ClientWeightModelModel   = "clients.weightModel.model"
	ClientWeightModelAPIKey  = "clients.weightModel.apiKey"

	// Embedding 客户端配置键
	EmbeddingConfigKeyModelName = "clients.embedding.model_name"
	EmbeddingConfigKeyBaseURL   = "clients.embedding.base_url"
	EmbeddingConfigKeyAPIKey    = "clients.embedding.api_key"
	EmbeddingConfigKeyCacheSize = "clients.embedding.cache_size"

	// redis 配置
	RedisClientDb       = "clients.redisClient.db"
	RedisClientHost     = "clients.redisClient.host"
	RedisClientPassword = "clients.redisClient.password"

	// 用户锁
	LockerType       = "locker.type"
	LockerTTLSeconds = "locker.ttl_seconds"

	// 插件与权重过滤
	PluginEnabled                    = "plugin.enabled"
	WeightFilterEnabled              = "weight_filter.enabled"
	WeightFilterMode                 = "weight_filter.filter_mode"
	WeightFilterHighThreshold        = "weight_filter.high_weight_threshold"
	WeightFilterMediumThreshold      = "weight_filter.medium_weight_threshold"
	WeightFilterFallbackScore        = "weight_filter.fallback_score"
	WeightFilterMaxHistoryChars      = "weight_filter.max_history_chars"
	WeightFilterMaxMessageChars      = "weight_filter.max_message_chars"
	ImpressionMaxContextEntries      = "impression.max_context_entries"
	ImpressionCandidateWindow        = "impression.candidate_window"
	ImpressionSimilarityWeight       = "impression.similarity_weight"
	HistoryMaxMessages               = "history.max_messages"
	HistoryHoursBack                 = "history.hours_back"
	HistoryMinMessageLength          = "history.min_message_length"
	AffectionIncrementFriendly       = "affection_increment.friendly_increment"
	AffectionIncrementNeutral        = "affection_increment.neutral_increment"
	AffectionIncrementNegative       = "affection_increment.negative_increment"
	PromptsWeightEvaluationPrompt    = "prompts.weight_evaluation_prompt"
	PromptsImpressionTemplate        = "prompts.impression_template"
	PromptsAffectionTemplate         = "prompts.affection_template"
	PermissionsAdmin                 = "permissions.admin"
	PermissionsJWTSecret             = "permissions.jwt_secret"
	DispatcherMaxThread              = "dispatcher.max_thread"
	DispatcherCacheNum               = "dispatcher.cache_num"
	DispatcherIntervalMilliSeconds   = "dispatcher.interval_ms"
	DispatcherUserParallelism        = "dispatcher.user_parallelism"
	DispatcherPipelineTimeoutSeconds = "dispatcher.pipeline_timeout_seconds"
	DispatcherRetryIntervalSeconds   = "dispatcher.retry_interval_seconds"
	DispatcherRetryBatchSize         = "dispatcher.retry_batch_size"
)

var instance *config
var once sync.Once

type config struct {
	*viper.Viper
}

func GetInstance() *config {
	once.Do(func() {
		configInstance := &config{Viper: viper.New()}
		configInstance.SetConfigType(TypeYaml)
		configInstance.AutomaticEnv()
		replacer := strings.NewReplacer(".", "_")
		configInstance.SetEnvKeyReplacer(replacer)

		configPath := findConfigPath()
		if configPath == constant.EmptyString {
			log.Warnf("%s not found, running with defaults and environment only", DefaultConfigName)
			instance = configInstance
			return
		}

		configInstance.SetConfigFile(configPath)
		if err := configInstance.ReadInConfig(); err != nil {
			panic(err)
		}
		log.Infof("config loaded from %s", configPath)

		instance = configInstance
	})
	return instance
}

// findConfigPath 优先使用 CONFIG_PATH，否则从工作目录逐级向上查找 config.yaml
func findConfigPath() string {
	envConfigPath := os.Getenv(OSConfigPath)
	if !strings.EqualFold(envConfigPath, constant.EmptyString) {
		log.Infof("find success in constant CONFIG_PATH, use %s", envConfigPath)
		return filepath.Join(envConfigPath, DefaultConfigName)
	}

	dir, err := os.Getwd()
	if err != nil {
		panic("get config path error:" + err.Error())
	}
	path, ok := file.FindUpwards(dir, DefaultConfigName)
	if !ok {
		return constant.EmptyString
	}
	return path
}

func (c *config) GetString(key string) string {
	return c.Viper.GetString(key)
}

func (c *config) GetStringOrDefault(key string, defaultValue string) string {
	if c.IsSet(key) {
		return c.GetString(key)
	}

	return defaultValue
}

func (c *config) GetInt(key string) int {
	return c.Viper.GetInt(key)
}

func (c *config) GetIntOrDefault(key string, defaultValue int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}

	return defaultValue
}

func (c *config) GetBool(key string) bool {
	return c.Viper.GetBool(key)
}

func (c *config) GetBoolOrDefault(key string, defaultValue bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}

	return defaultValue
}

func (c *config) GetFloat64(key string) float64 {
	return c.Viper.GetFloat64(key)
}

func (c *config) GetFloat64OrDefault(key string, defaultValue float64) float64 {
	if c.IsSet(key) {
		return c.GetFloat64(key)
	}

	return defaultValue
}

func (c *config) GetStringSliceOrDefault(key string, defaultValue []string) []string {
	if c.IsSet(key) {
		return c.GetStringSlice(key)
	}

	return defaultValue
}
