package constant

// FilterMode 权重过滤模式
type FilterMode string

const (
	// FilterModeDisabled 不过滤，所有消息都参与画像更新
	FilterModeDisabled FilterMode = "disabled"
	// FilterModeSelective 只接纳高权重消息
	FilterModeSelective FilterMode = "selective"
	// FilterModeBalanced 接纳中、高权重消息
	FilterModeBalanced FilterMode = "balanced"
)

func (m FilterMode) String() string {
	return string(m)
}

// IsValid 检查过滤模式是否有效
func (m FilterMode) IsValid() bool {
	switch m {
	case FilterModeDisabled, FilterModeSelective, FilterModeBalanced:
		return true
	}
	return false
}

// WeightLevel 权重等级
type WeightLevel string

const (
	WeightLevelHigh   WeightLevel = "high"
	WeightLevelMedium WeightLevel = "medium"
	WeightLevelLow    WeightLevel = "low"
)

func (l WeightLevel) String() string {
	return string(l)
}

// AffectionType 好感度评估返回的消息类别
type AffectionType string

const (
	AffectionTypeFriendly AffectionType = "friendly"
	AffectionTypeNeutral  AffectionType = "neutral"
	AffectionTypeNegative AffectionType = "negative"
)

// IsValid 检查类别是否有效
func (t AffectionType) IsValid() bool {
	switch t {
	case AffectionTypeFriendly, AffectionTypeNeutral, AffectionTypeNegative:
		return true
	}
	return false
}

// AffectionLevel 好感度等级，由分数按固定区间换算
type AffectionLevel string

const (
	AffectionLevelHostile  AffectionLevel = "hostile"
	AffectionLevelCold     AffectionLevel = "cold"
	AffectionLevelNeutral  AffectionLevel = "neutral"
	AffectionLevelFriendly AffectionLevel = "friendly"
	AffectionLevelIntimate AffectionLevel = "intimate"
)

func (l AffectionLevel) String() string {
	return string(l)
}

// 好感度分数范围
const (
	AffectionScoreMin     = 0.0
	AffectionScoreMax     = 100.0
	AffectionScoreInitial = 50.0
)

// 权重分数范围
const (
	WeightScoreMin = 0.0
	WeightScoreMax = 100.0
)

// Outcome 单条消息一次流水线执行的结果
type Outcome string

const (
	// OutcomeDisabled 插件未启用
	OutcomeDisabled Outcome = "disabled"
	// OutcomeDuplicate 消息已处理过，无操作
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected 权重未达到准入阈值，已标记为处理
	OutcomeRejected Outcome = "rejected"
	// OutcomeUpdated 印象与好感度已更新
	OutcomeUpdated Outcome = "updated"
	// OutcomeFailed 画像更新失败，消息保持未处理，可重试
	OutcomeFailed Outcome = "failed"
)

func (o Outcome) String() string {
	return string(o)
}

// 好感度手动调整时记录的原因
const AffectionChangeReasonManual = "manual"

// LockerType 用户锁实现
type LockerType string

const (
	LockerTypeLocal LockerType = "local"
	LockerTypeRedis LockerType = "redis"
)
