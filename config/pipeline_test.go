package config

import (
	"ai_impression/constant"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineOptionsFrom_Defaults(t *testing.T) {
	opts, err := LoadPipelineOptionsFrom(viper.New())
	require.NoError(t, err)
	assert.False(t, opts.PluginEnabled)
	assert.Equal(t, constant.FilterModeSelective, opts.FilterMode)
	assert.Equal(t, constant.DefaultHighWeightThreshold, opts.HighWeightThreshold)
	assert.Equal(t, constant.DefaultMediumWeightThreshold, opts.FallbackScore)
	assert.Equal(t, constant.DefaultImpressionTemplate, opts.Templates[constant.PromptIDImpression])
}

func TestLoadPipelineOptionsFrom_Overrides(t *testing.T) {
	v := viper.New()
	v.Set(PluginEnabled, "true")
	v.Set(WeightFilterMode, " Balanced ")
	v.Set(WeightFilterMediumThreshold, "35")
	v.Set(ImpressionMaxContextEntries, 0)
	v.Set(PromptsAffectionTemplate, "评估 {message}")
	v.Set(PromptsImpressionTemplate, "   ")

	opts, err := LoadPipelineOptionsFrom(v)
	require.NoError(t, err)
	assert.True(t, opts.PluginEnabled)
	assert.Equal(t, constant.FilterModeBalanced, opts.FilterMode)
	assert.Equal(t, 35.0, opts.MediumWeightThreshold)
	// 未配置兜底分数时跟随中阈值
	assert.Equal(t, 35.0, opts.FallbackScore)
	assert.Equal(t, 0, opts.MaxContextEntries)
	assert.Equal(t, "评估 {message}", opts.Templates[constant.PromptIDAffection])
	assert.Equal(t, constant.DefaultImpressionTemplate, opts.Templates[constant.PromptIDImpression])
}

func TestLoadPipelineOptionsFrom_Invalid(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"medium above high":      {WeightFilterHighThreshold: 50, WeightFilterMediumThreshold: 60},
		"threshold out of range": {WeightFilterHighThreshold: 120},
		"negative context":       {ImpressionMaxContextEntries: -1},
		"unknown mode":           {WeightFilterMode: "strict"},
		"not a number":           {WeightFilterHighThreshold: "high"},
		"bad bool":               {PluginEnabled: "maybe"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range values {
				v.Set(k, val)
			}
			_, err := LoadPipelineOptionsFrom(v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
		})
	}
}

func TestAdminIDs(t *testing.T) {
	GetInstance().Set(PermissionsAdmin, []interface{}{10001, "qq:20002"})
	defer GetInstance().Set(PermissionsAdmin, nil)
	assert.Equal(t, []string{"10001", "qq:20002"}, AdminIDs())
}
