package constant

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

const (
	EmptyString = ""
)

// 插件默认配置，与 config.yaml 中缺省字段对应
const (
	DefaultHighWeightThreshold   = 70.0
	DefaultMediumWeightThreshold = 40.0
	DefaultMaxContextEntries     = 30
	DefaultCandidateWindow       = 4
	DefaultSimilarityWeight      = 0.6
	DefaultMaxHistoryChars       = 2000
	DefaultMaxMessageChars       = 500
	DefaultEmbeddingCacheSize    = 1000

	DefaultHistoryMaxMessages = 20
	DefaultHistoryHoursBack   = 72
	DefaultHistoryMinLength   = 5

	DefaultFriendlyIncrement = 2.0
	DefaultNeutralIncrement  = 0.5
	DefaultNegativeIncrement = -3.0

	DefaultLockTTLSeconds = 120
)

// 消息 ID 缺失时派生 ID 的前缀
const DerivedMessageIDPrefix = "hash_"

// 异步分发默认配置
const (
	DefaultDispatcherMaxThread    = 1
	DefaultDispatcherCacheNum     = 200
	DefaultDispatcherIntervalMs   = 500
	DefaultUserParallelism        = 8
	DefaultPipelineTimeoutSeconds = 120
	DefaultRetryIntervalSeconds   = 300
	DefaultRetryBatchSize         = 50
	DefaultLockRetryIntervalMs    = 50
)
