package config

import (
	"ai_impression/constant"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrInvalidConfiguration 配置非法，启动或加载配置时返回
var ErrInvalidConfiguration = errors.New("invalid configuration")

// PipelineOptions 一次流水线执行所需的全部配置，每次执行读取一次
type PipelineOptions struct {
	PluginEnabled bool

	WeightFilterEnabled   bool
	FilterMode            constant.FilterMode
	HighWeightThreshold   float64
	MediumWeightThreshold float64
	FallbackScore         float64
	MaxHistoryChars       int
	MaxMessageChars       int

	MaxContextEntries int
	CandidateWindow   int
	SimilarityWeight  float64

	HistoryMaxMessages      int
	HistoryHoursBack        int
	HistoryMinMessageLength int

	FriendlyIncrement float64
	NeutralIncrement  float64
	NegativeIncrement float64

	// Templates 提示词模板，key 为模板 ID
	Templates map[string]string
}

// DefaultPipelineOptions 返回默认配置
func DefaultPipelineOptions() *PipelineOptions {
	return &PipelineOptions{
		PluginEnabled:           false,
		WeightFilterEnabled:     true,
		FilterMode:              constant.FilterModeSelective,
		HighWeightThreshold:     constant.DefaultHighWeightThreshold,
		MediumWeightThreshold:   constant.DefaultMediumWeightThreshold,
		FallbackScore:           constant.DefaultMediumWeightThreshold,
		MaxHistoryChars:         constant.DefaultMaxHistoryChars,
		MaxMessageChars:         constant.DefaultMaxMessageChars,
		MaxContextEntries:       constant.DefaultMaxContextEntries,
		CandidateWindow:         constant.DefaultCandidateWindow,
		SimilarityWeight:        constant.DefaultSimilarityWeight,
		HistoryMaxMessages:      constant.DefaultHistoryMaxMessages,
		HistoryHoursBack:        constant.DefaultHistoryHoursBack,
		HistoryMinMessageLength: constant.DefaultHistoryMinLength,
		FriendlyIncrement:       constant.DefaultFriendlyIncrement,
		NeutralIncrement:        constant.DefaultNeutralIncrement,
		NegativeIncrement:       constant.DefaultNegativeIncrement,
		Templates: map[string]string{
			constant.PromptIDWeightEvaluation: constant.DefaultWeightEvaluationPrompt,
			constant.PromptIDImpression:       constant.DefaultImpressionTemplate,
			constant.PromptIDAffection:        constant.DefaultAffectionTemplate,
		},
	}
}

// LoadPipelineOptions 从全局配置读取流水线配置并校验
func LoadPipelineOptions() (*PipelineOptions, error) {
	return LoadPipelineOptionsFrom(GetInstance().Viper)
}

// LoadPipelineOptionsFrom 从指定 viper 实例读取流水线配置并校验
func LoadPipelineOptionsFrom(v *viper.Viper) (*PipelineOptions, error) {
	opts := DefaultPipelineOptions()
	var errs []error

	readBool := func(key string, dst *bool) {
		if !v.IsSet(key) {
			return
		}
		b, err := cast.ToBoolE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
	readFloat := func(key string, dst *float64) {
		if !v.IsSet(key) {
			return
		}
		f, err := cast.ToFloat64E(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	readInt := func(key string, dst *int) {
		if !v.IsSet(key) {
			return
		}
		i, err := cast.ToIntE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = i
	}
	readTemplate := func(key, templateID string) {
		if !v.IsSet(key) {
			return
		}
		if s := strings.TrimSpace(v.GetString(key)); s != constant.EmptyString {
			opts.Templates[templateID] = s
		}
	}

	readBool(PluginEnabled, &opts.PluginEnabled)
	readBool(WeightFilterEnabled, &opts.WeightFilterEnabled)
	if v.IsSet(WeightFilterMode) {
		opts.FilterMode = constant.FilterMode(strings.ToLower(strings.TrimSpace(v.GetString(WeightFilterMode))))
	}
	readFloat(WeightFilterHighThreshold, &opts.HighWeightThreshold)
	readFloat(WeightFilterMediumThreshold, &opts.MediumWeightThreshold)
	// 兜底分数默认取中权重阈值
	opts.FallbackScore = opts.MediumWeightThreshold
	readFloat(WeightFilterFallbackScore, &opts.FallbackScore)
	readInt(WeightFilterMaxHistoryChars, &opts.MaxHistoryChars)
	readInt(WeightFilterMaxMessageChars, &opts.MaxMessageChars)
	readInt(ImpressionMaxContextEntries, &opts.MaxContextEntries)
	readInt(ImpressionCandidateWindow, &opts.CandidateWindow)
	readFloat(ImpressionSimilarityWeight, &opts.SimilarityWeight)
	readInt(HistoryMaxMessages, &opts.HistoryMaxMessages)
	readInt(HistoryHoursBack, &opts.HistoryHoursBack)
	readInt(HistoryMinMessageLength, &opts.HistoryMinMessageLength)
	readFloat(AffectionIncrementFriendly, &opts.FriendlyIncrement)
	readFloat(AffectionIncrementNeutral, &opts.NeutralIncrement)
	readFloat(AffectionIncrementNegative, &opts.NegativeIncrement)
	readTemplate(PromptsWeightEvaluationPrompt, constant.PromptIDWeightEvaluation)
	readTemplate(PromptsImpressionTemplate, constant.PromptIDImpression)
	readTemplate(PromptsAffectionTemplate, constant.PromptIDAffection)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate 校验配置，不合法时返回 ErrInvalidConfiguration
func (o *PipelineOptions) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}

	if !o.FilterMode.IsValid() {
		return invalid("unknown filter_mode %q", o.FilterMode)
	}
	if !inScoreRange(o.HighWeightThreshold) {
		return invalid("high_weight_threshold %v out of [0,100]", o.HighWeightThreshold)
	}
	if !inScoreRange(o.MediumWeightThreshold) {
		return invalid("medium_weight_threshold %v out of [0,100]", o.MediumWeightThreshold)
	}
	if o.MediumWeightThreshold > o.HighWeightThreshold {
		return invalid("medium_weight_threshold %v greater than high_weight_threshold %v",
			o.MediumWeightThreshold, o.HighWeightThreshold)
	}
	if !inScoreRange(o.FallbackScore) {
		return invalid("fallback_score %v out of [0,100]", o.FallbackScore)
	}
	if o.MaxContextEntries < 0 {
		return invalid("max_context_entries must be >= 0, got %d", o.MaxContextEntries)
	}
	if o.CandidateWindow < 1 {
		return invalid("candidate_window must be >= 1, got %d", o.CandidateWindow)
	}
	if o.SimilarityWeight < 0 || o.SimilarityWeight > 1 {
		return invalid("similarity_weight %v out of [0,1]", o.SimilarityWeight)
	}
	if o.MaxHistoryChars < 0 || o.MaxMessageChars < 0 {
		return invalid("max_history_chars and max_message_chars must be >= 0")
	}
	if o.HistoryMaxMessages < 0 || o.HistoryHoursBack < 0 || o.HistoryMinMessageLength < 0 {
		return invalid("history settings must be >= 0")
	}
	for _, id := range []string{constant.PromptIDWeightEvaluation, constant.PromptIDImpression, constant.PromptIDAffection} {
		if strings.TrimSpace(o.Templates[id]) == constant.EmptyString {
			return invalid("prompt template %s is empty", id)
		}
	}
	return nil
}

func inScoreRange(v float64) bool {
	return v >= constant.WeightScoreMin && v <= constant.WeightScoreMax
}

// AdminIDs 读取管理员列表
func AdminIDs() []string {
	return cast.ToStringSlice(GetInstance().Get(PermissionsAdmin))
}

// AdminJWTSecret 读取管理接口 token 的 HS256 密钥
func AdminJWTSecret() string {
	return GetInstance().GetString(PermissionsJWTSecret)
}
