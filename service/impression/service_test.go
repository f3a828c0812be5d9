package impression

import (
	"ai_impression/config"
	"ai_impression/constant"
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/pkg/clients/embedding"
	"ai_impression/pkg/locker"
	"ai_impression/pkg/metrics"
	"ai_impression/pkg/prompt"
	"ai_impression/repository/xormimplement"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const (
	weightHigh    = "WEIGHT_SCORE: 85; WEIGHT_LEVEL: high; REASON: 分享了个人经历"
	weightLow     = "WEIGHT_SCORE: 30; WEIGHT_LEVEL: low; REASON: 问候"
	impressionOK  = "IMPRESSION: 喜欢登山，性格开朗"
	affectionGood = "TYPE: friendly; REASON: 表达了感谢"
)

type ServiceTest struct {
	suite.Suite
	factory   *xormimplement.Factory
	embedder  *fakeEmbedder
	completer *fakeCompleter
	opts      *config.PipelineOptions
	service   *Service
}

func TestService(t *testing.T) {
	suite.Run(t, new(ServiceTest))
}

func (s *ServiceTest) SetupTest() {
	f, err := xormimplement.NewSqliteFactory(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	s.Require().NoError(err)
	s.factory = f

	s.embedder = &fakeEmbedder{failTexts: map[string]bool{}}
	s.completer = newFakeCompleter()
	s.completer.reply(constant.PromptIDWeightEvaluation, weightHigh, nil)
	s.completer.reply(constant.PromptIDImpression, impressionOK, nil)
	s.completer.reply(constant.PromptIDAffection, affectionGood, nil)

	s.opts = config.DefaultPipelineOptions()
	s.opts.PluginEnabled = true

	s.service = NewService(f, s.embedder, s.completer, locker.NewLocalLocker(),
		WithMetrics(metrics.New()),
		WithOptionsLoader(func() (*config.PipelineOptions, error) {
			copied := *s.opts
			return &copied, copied.Validate()
		}))
}

func (s *ServiceTest) TearDownTest() {
	s.NoError(s.factory.Close())
}

func (s *ServiceTest) event(userID, messageID, content string) *model.MessageEvent {
	return &model.MessageEvent{UserID: userID, MessageID: messageID, MessageContent: content, Timestamp: time.Now().Unix()}
}

func (s *ServiceTest) process(event *model.MessageEvent) *model.ProcessMessageResponse {
	resp, err := s.service.ProcessMessage(context.Background(), event)
	s.Require().NoError(err)
	return resp
}

func (s *ServiceTest) record(userID, messageID string) *entity.ImpressionMessageRecord {
	var record *entity.ImpressionMessageRecord
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		var err error
		record, err = repos.records.Get(userID, messageID)
		return err
	}))
	return record
}

func (s *ServiceTest) state(userID string) *entity.UserMessageState {
	var state *entity.UserMessageState
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		var err error
		state, err = repos.states.Get(userID)
		return err
	}))
	return state
}

func (s *ServiceTest) impression(userID string) *entity.UserImpression {
	var impression *entity.UserImpression
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		var err error
		impression, err = repos.impressions.Get(userID)
		return err
	}))
	return impression
}

func (s *ServiceTest) affection(userID string) *entity.UserAffection {
	var affection *entity.UserAffection
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		var err error
		affection, err = repos.affections.Get(userID)
		return err
	}))
	return affection
}

func (s *ServiceTest) TestProcessMessage_Updated() {
	resp := s.process(s.event("qq:u1", "m1", "上周末去爬了黄山，风景特别好"))

	s.Equal(constant.OutcomeUpdated.String(), resp.Outcome)
	s.Equal("u1", resp.UserID)
	s.Require().NotNil(resp.WeightScore)
	s.Equal(85.0, *resp.WeightScore)
	s.Equal(constant.WeightLevelHigh.String(), resp.WeightLevel)
	s.False(resp.WeightFallback)

	record := s.record("u1", "m1")
	s.Require().NotNil(record)
	s.True(record.Processed)
	s.True(record.Admitted)
	s.True(record.HasVector())
	s.Equal("分享了个人经历", record.WeightReason)
	s.NotNil(record.ProcessedAt)

	impression := s.impression("u1")
	s.Require().NotNil(impression)
	s.Equal("喜欢登山，性格开朗", impression.ImpressionText)
	vector, err := embedding.StringToVector(impression.ImpressionVector)
	s.Require().NoError(err)
	expected, err := s.embedder.Embed(context.Background(), impression.ImpressionText)
	s.Require().NoError(err)
	s.InDeltaSlice(expected, vector, 1e-6)

	affection := s.affection("u1")
	s.Require().NotNil(affection)
	s.InDelta(52.0, affection.AffectionScore, 1e-9)
	s.Equal(constant.AffectionLevelNeutral.String(), affection.AffectionLevel)
	s.Equal("表达了感谢", affection.ChangeReason)

	state := s.state("u1")
	s.Require().NotNil(state)
	s.Equal(int64(1), state.TotalMessages)
	s.Equal(int64(1), state.ImpressionUpdateCount)
	s.Equal(int64(1), state.AffectionUpdateCount)
}

func (s *ServiceTest) TestProcessMessage_IdempotentIntake() {
	event := s.event("u1", "m1", "我最近在学吉他")
	first := s.process(event)
	s.Equal(constant.OutcomeUpdated.String(), first.Outcome)
	before := s.impression("u1")

	second := s.process(event)
	s.Equal(constant.OutcomeDuplicate.String(), second.Outcome)

	var records []*entity.ImpressionMessageRecord
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		var err error
		records, err = repos.records.List(&model.ListMessageRecordCondition{UserID: "u1"})
		return err
	}))
	s.Len(records, 1)

	s.Equal(1, s.completer.callCount(constant.PromptIDImpression))
	s.Equal(1, s.completer.callCount(constant.PromptIDAffection))
	s.Equal(before, s.impression("u1"))

	state := s.state("u1")
	s.Equal(int64(1), state.TotalMessages)
	s.Equal(int64(1), state.ImpressionUpdateCount)
}

func (s *ServiceTest) TestProcessMessage_DerivedMessageID() {
	event := &model.MessageEvent{UserID: " u1 ", MessageContent: "今天心情不错", Timestamp: 1700000000}
	first := s.process(event)
	s.True(strings.HasPrefix(first.MessageID, constant.DerivedMessageIDPrefix))
	s.Len(first.MessageID, len(constant.DerivedMessageIDPrefix)+16)

	second := s.process(event)
	s.Equal(first.MessageID, second.MessageID)
	s.Equal(constant.OutcomeDuplicate.String(), second.Outcome)
}

func (s *ServiceTest) TestProcessMessage_DerivedMessageIDWithoutTimestamp() {
	base := time.Unix(1700000000, 0)
	var mu sync.Mutex
	var ticks int64
	service := NewService(s.factory, s.embedder, s.completer, locker.NewLocalLocker(),
		WithOptionsLoader(func() (*config.PipelineOptions, error) {
			copied := *s.opts
			return &copied, copied.Validate()
		}),
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			ticks++
			return base.Add(time.Duration(ticks) * time.Minute)
		}))

	first := &model.MessageEvent{UserID: "u1", MessageContent: "好的好的"}
	r1, err := service.ProcessMessage(context.Background(), first)
	s.Require().NoError(err)
	second := &model.MessageEvent{UserID: "u1", MessageContent: "好的好的"}
	r2, err := service.ProcessMessage(context.Background(), second)
	s.Require().NoError(err)

	// 两次独立发送不会被当成重复消息
	s.NotEqual(r1.MessageID, r2.MessageID)
	s.Equal(constant.OutcomeUpdated.String(), r1.Outcome)
	s.Equal(constant.OutcomeUpdated.String(), r2.Outcome)
	s.Equal(int64(2), s.state("u1").TotalMessages)

	// 接收时间写回事件，派生 ID 与消息时间一致
	s.NotZero(first.Timestamp)
	s.Equal(DeriveMessageID("u1", first.Timestamp, "好的好的"), r1.MessageID)
	s.Equal(first.Timestamp, s.record("u1", r1.MessageID).MessageTime.Unix())

	// 同一事件重放仍然去重
	r3, err := service.ProcessMessage(context.Background(), first)
	s.Require().NoError(err)
	s.Equal(r1.MessageID, r3.MessageID)
	s.Equal(constant.OutcomeDuplicate.String(), r3.Outcome)
}

func (s *ServiceTest) TestProcessMessage_Rejected() {
	s.completer.reply(constant.PromptIDWeightEvaluation, weightLow, nil)

	resp := s.process(s.event("u1", "m1", "你好"))
	s.Equal(constant.OutcomeRejected.String(), resp.Outcome)
	s.Equal(constant.WeightLevelLow.String(), resp.WeightLevel)

	record := s.record("u1", "m1")
	s.True(record.Processed)
	s.False(record.Admitted)
	s.Nil(s.impression("u1"))
	s.Nil(s.affection("u1"))
	s.Zero(s.completer.callCount(constant.PromptIDImpression))

	state := s.state("u1")
	s.Equal(int64(1), state.TotalMessages)
	s.Zero(state.ImpressionUpdateCount)

	// 已拒绝的消息不会再次评估
	again := s.process(s.event("u1", "m1", "你好"))
	s.Equal(constant.OutcomeDuplicate.String(), again.Outcome)
	s.Equal(1, s.completer.callCount(constant.PromptIDWeightEvaluation))
}

func (s *ServiceTest) TestProcessMessage_ThresholdBoundary() {
	s.opts.FilterMode = constant.FilterModeSelective
	s.opts.HighWeightThreshold = 70

	s.completer.reply(constant.PromptIDWeightEvaluation, "WEIGHT_SCORE: 70; REASON: 边界", nil)
	s.Equal(constant.OutcomeUpdated.String(), s.process(s.event("u1", "m70", "刚好七十分的消息")).Outcome)

	s.completer.reply(constant.PromptIDWeightEvaluation, "WEIGHT_SCORE: 69.999; REASON: 边界", nil)
	s.Equal(constant.OutcomeRejected.String(), s.process(s.event("u1", "m69", "差一点七十分的消息")).Outcome)
}

func (s *ServiceTest) TestProcessMessage_WeightFallback() {
	s.completer.reply(constant.PromptIDWeightEvaluation, "", errFakeOracle)

	resp := s.process(s.event("u1", "m1", "这条消息评估失败"))
	s.Equal(constant.OutcomeRejected.String(), resp.Outcome)
	s.True(resp.WeightFallback)
	s.Require().NotNil(resp.WeightScore)
	s.Equal(s.opts.MediumWeightThreshold, *resp.WeightScore)

	s.opts.FilterMode = constant.FilterModeBalanced
	s.completer.reply(constant.PromptIDWeightEvaluation, "完全无法解析的回复", nil)
	resp = s.process(s.event("u1", "m2", "这条消息返回格式错误"))
	s.Equal(constant.OutcomeUpdated.String(), resp.Outcome)
	s.True(resp.WeightFallback)
	s.Equal(constant.WeightLevelMedium.String(), resp.WeightLevel)
}

func (s *ServiceTest) TestProcessMessage_WeightClamped() {
	s.completer.reply(constant.PromptIDWeightEvaluation, "WEIGHT_SCORE: 250; REASON: 超出范围", nil)
	resp := s.process(s.event("u1", "m1", "分数越界的消息"))
	s.Require().NotNil(resp.WeightScore)
	s.Equal(constant.WeightScoreMax, *resp.WeightScore)
}

func (s *ServiceTest) TestProcessMessage_WeightFilterDisabled() {
	s.opts.WeightFilterEnabled = false

	resp := s.process(s.event("u1", "m1", "不经过权重过滤"))
	s.Equal(constant.OutcomeUpdated.String(), resp.Outcome)
	s.Nil(resp.WeightScore)
	s.Zero(s.completer.callCount(constant.PromptIDWeightEvaluation))
}

func (s *ServiceTest) TestProcessMessage_PluginDisabled() {
	s.opts.PluginEnabled = false

	resp := s.process(s.event("u1", "m1", "插件关闭"))
	s.Equal(constant.OutcomeDisabled.String(), resp.Outcome)
	s.Nil(s.record("u1", "m1"))
	s.Nil(s.state("u1"))
}

func (s *ServiceTest) TestProcessMessage_InvalidConfiguration() {
	s.opts.MediumWeightThreshold = 90
	s.opts.HighWeightThreshold = 80

	_, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "配置错误"))
	s.ErrorIs(err, config.ErrInvalidConfiguration)
	s.Nil(s.record("u1", "m1"))
}

func (s *ServiceTest) TestProcessMessage_InvalidEvent() {
	_, err := s.service.ProcessMessage(context.Background(), s.event("  ", "m1", "内容"))
	s.ErrorIs(err, ErrInvalidEvent)

	_, err = s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "   "))
	s.ErrorIs(err, ErrInvalidEvent)
}

func (s *ServiceTest) TestProcessMessage_EmbeddingFailureNonFatal() {
	content := "向量化会失败的消息"
	s.embedder.failTexts[content] = true

	resp := s.process(s.event("u1", "m1", content))
	s.Equal(constant.OutcomeUpdated.String(), resp.Outcome)

	record := s.record("u1", "m1")
	s.False(record.HasVector())
	s.True(record.Processed)
}

func (s *ServiceTest) TestProcessMessage_FailClosedImpression() {
	s.Equal(constant.OutcomeUpdated.String(), s.process(s.event("u1", "m1", "第一条消息")).Outcome)
	beforeImpression := s.impression("u1")
	beforeAffection := s.affection("u1")
	weightCalls := s.completer.callCount(constant.PromptIDWeightEvaluation)

	s.completer.reply(constant.PromptIDImpression, "", errFakeOracle)
	resp, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m2", "第二条消息"))
	s.Require().Error(err)
	s.ErrorIs(err, ErrOracleUnavailable)
	s.Equal(constant.OutcomeFailed.String(), resp.Outcome)

	s.Equal(beforeImpression, s.impression("u1"))
	s.Equal(beforeAffection, s.affection("u1"))
	s.False(s.record("u1", "m2").Processed)

	state := s.state("u1")
	s.Equal(int64(2), state.TotalMessages)
	s.Equal(int64(1), state.ImpressionUpdateCount)
	s.Equal(int64(1), state.AffectionUpdateCount)

	// 重试不重复计数，也不重新评估权重
	s.completer.reply(constant.PromptIDImpression, "IMPRESSION: 喜欢登山，也喜欢摄影", nil)
	result, err := s.service.RetryPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(1, result.Updated)
	s.Equal(weightCalls+1, s.completer.callCount(constant.PromptIDWeightEvaluation))

	s.True(s.record("u1", "m2").Processed)
	s.Equal("喜欢登山，也喜欢摄影", s.impression("u1").ImpressionText)
	state = s.state("u1")
	s.Equal(int64(2), state.TotalMessages)
	s.Equal(int64(2), state.ImpressionUpdateCount)
	s.Equal(int64(2), state.AffectionUpdateCount)
}

func (s *ServiceTest) TestProcessMessage_FailClosedImpressionEmbedding() {
	s.completer.reply(constant.PromptIDImpression, "IMPRESSION: 无法向量化的印象", nil)
	s.embedder.failTexts["无法向量化的印象"] = true

	resp, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "消息内容"))
	s.ErrorIs(err, ErrOracleUnavailable)
	s.Equal(constant.OutcomeFailed.String(), resp.Outcome)
	s.Nil(s.impression("u1"))
	s.Nil(s.affection("u1"))
	s.False(s.record("u1", "m1").Processed)
}

func (s *ServiceTest) TestProcessMessage_MalformedAffection() {
	s.completer.reply(constant.PromptIDAffection, "我觉得还行吧", nil)

	resp, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "消息内容"))
	s.ErrorIs(err, ErrMalformedOracleResponse)
	s.Equal(constant.OutcomeFailed.String(), resp.Outcome)
	s.Nil(s.impression("u1"))
	s.False(s.record("u1", "m1").Processed)
}

func (s *ServiceTest) TestProcessMessage_CanceledMidFlight() {
	release := s.completer.blockOn(constant.PromptIDAffection)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		s.Eventually(func() bool {
			return s.completer.callCount(constant.PromptIDAffection) > 0
		}, time.Second, time.Millisecond)
		cancel()
	}()

	resp, err := s.service.ProcessMessage(ctx, s.event("u1", "m1", "处理中被取消的消息"))
	s.True(errors.Is(err, context.Canceled))
	s.Equal(constant.OutcomeFailed.String(), resp.Outcome)

	s.Nil(s.impression("u1"))
	s.Nil(s.affection("u1"))
	record := s.record("u1", "m1")
	s.Require().NotNil(record)
	s.False(record.Processed)
	s.Zero(s.state("u1").ImpressionUpdateCount)
}

func (s *ServiceTest) TestProcessMessage_ContextBound() {
	s.opts.MaxContextEntries = 30
	s.opts.CandidateWindow = 4
	s.opts.MaxHistoryChars = 100000

	base := time.Now().Add(-time.Hour)
	s.Require().NoError(s.service.inTx(context.Background(), func(repos *repositories) error {
		for i := 0; i < 500; i++ {
			content := fmt.Sprintf("历史消息 %03d", i)
			vector, _ := s.embedder.Embed(context.Background(), content)
			if err := repos.records.Insert(&entity.ImpressionMessageRecord{
				UserID:         "u1",
				MessageID:      fmt.Sprintf("h%03d", i),
				MessageContent: content,
				MessageVector:  embedding.VectorToString(vector),
				Admitted:       true,
				Processed:      true,
				MessageTime:    base.Add(time.Duration(i) * time.Second),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	s.Equal(constant.OutcomeUpdated.String(), s.process(s.event("u1", "m1", "新的消息")).Outcome)

	requests := s.completer.requestsFor(constant.PromptIDImpression)
	s.Require().Len(requests, 1)
	history := requests[0].Variables[constant.PromptVarHistoryContext]
	lines := strings.Split(history, "\n")
	s.Len(lines, 30)
	for _, line := range lines {
		var n int
		_, err := fmt.Sscanf(line, "- 历史消息 %d", &n)
		s.Require().NoError(err)
		// 候选窗口只包含最近的 120 条
		s.GreaterOrEqual(n, 380)
	}
}

func (s *ServiceTest) TestProcessMessage_ZeroContext() {
	s.opts.MaxContextEntries = 0
	s.Equal(constant.OutcomeUpdated.String(), s.process(s.event("u1", "m1", "第一条")).Outcome)
	s.Equal(constant.OutcomeUpdated.String(), s.process(s.event("u1", "m2", "第二条")).Outcome)

	requests := s.completer.requestsFor(constant.PromptIDImpression)
	s.Require().Len(requests, 2)
	s.Equal(emptyContext, requests[1].Variables[constant.PromptVarHistoryContext])
	s.Equal("喜欢登山，性格开朗", requests[1].Variables[constant.PromptVarExistingImpression])
}

func (s *ServiceTest) TestProcessMessage_ContextOnlyEarlierMessages() {
	late := s.event("u1", "late", "后发生的消息")
	s.Equal(constant.OutcomeUpdated.String(), s.process(late).Outcome)

	// 晚到的早期消息不能看到之后的消息
	early := s.event("u1", "early", "更早发生的消息")
	early.Timestamp = late.Timestamp - 3600
	s.Equal(constant.OutcomeUpdated.String(), s.process(early).Outcome)

	requests := s.completer.requestsFor(constant.PromptIDImpression)
	s.Require().Len(requests, 2)
	s.Equal(emptyContext, requests[1].Variables[constant.PromptVarHistoryContext])

	weightRequests := s.completer.requestsFor(constant.PromptIDWeightEvaluation)
	s.Require().Len(weightRequests, 2)
	s.NotContains(weightRequests[1].Variables[constant.PromptVarContext], "后发生的消息")

	// 之后的消息仍能看到两条更早的消息
	next := s.event("u1", "next", "再一条")
	next.Timestamp = late.Timestamp + 5
	s.Equal(constant.OutcomeUpdated.String(), s.process(next).Outcome)
	requests = s.completer.requestsFor(constant.PromptIDImpression)
	s.Require().Len(requests, 3)
	history := requests[2].Variables[constant.PromptVarHistoryContext]
	s.Contains(history, "后发生的消息")
	s.Contains(history, "更早发生的消息")
}

func (s *ServiceTest) TestProcessMessage_AffectionSequence() {
	replies := []string{
		"TYPE: negative; REASON: 不耐烦",
		"TYPE: negative; REASON: 嘲讽",
		"TYPE: neutral; REASON: 事务性",
		"SCORE: 150; REASON: 直接给分",
	}
	var i int
	var mu sync.Mutex
	s.completer.replyFunc(constant.PromptIDAffection, func(req *prompt.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		r := replies[i]
		i++
		return r, nil
	})

	want := []float64{47, 44, 44.5, 100}
	for n, score := range want {
		s.process(s.event("u1", fmt.Sprintf("m%d", n), fmt.Sprintf("消息 %d", n)))
		affection := s.affection("u1")
		s.InDelta(score, affection.AffectionScore, 1e-9)
	}
	s.Equal(constant.AffectionLevelIntimate.String(), s.affection("u1").AffectionLevel)

	requests := s.completer.requestsFor(constant.PromptIDAffection)
	s.Equal("50.0", requests[0].Variables[constant.PromptVarAffectionScore])
	s.Equal("47.0", requests[1].Variables[constant.PromptVarAffectionScore])
	s.Equal(constant.AffectionLevelNeutral.String(), requests[1].Variables[constant.PromptVarAffectionLevel])
}

func (s *ServiceTest) TestProcessMessage_SameUserConcurrent() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.service.ProcessMessage(context.Background(), s.event("u1", fmt.Sprintf("m%d", i), fmt.Sprintf("并发消息 %d", i)))
			if s.NoError(err) {
				s.Equal(constant.OutcomeUpdated.String(), resp.Outcome)
			}
		}(i)
	}
	wg.Wait()

	state := s.state("u1")
	s.Equal(int64(10), state.TotalMessages)
	s.Equal(int64(10), state.ImpressionUpdateCount)
	s.Equal(int64(10), state.AffectionUpdateCount)
	s.InDelta(70.0, s.affection("u1").AffectionScore, 1e-9)
}

func (s *ServiceTest) TestRetryPending_SkipsWhenDisabled() {
	s.completer.reply(constant.PromptIDImpression, "", errFakeOracle)
	_, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "失败的消息"))
	s.Require().Error(err)

	s.opts.PluginEnabled = false
	result, err := s.service.RetryPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Zero(result.Scanned)
	s.False(s.record("u1", "m1").Processed)
}

func (s *ServiceTest) TestRetryPending_StillFailing() {
	s.completer.reply(constant.PromptIDAffection, "", errFakeOracle)
	_, err := s.service.ProcessMessage(context.Background(), s.event("u1", "m1", "失败的消息"))
	s.Require().Error(err)

	result, err := s.service.RetryPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(1, result.Failed)
	s.Equal(int64(1), s.state("u1").TotalMessages)
}

func (s *ServiceTest) TestGetProfile() {
	_, merr := s.service.GetProfile(context.Background(), "nobody")
	s.Require().NotNil(merr)
	s.Equal(model.ErrorNotFound, merr.Code)

	s.process(s.event("u1", "m1", "我是一名程序员"))
	view, merr := s.service.GetProfile(context.Background(), "wechat:u1")
	s.Require().Nil(merr)
	s.Equal("u1", view.UserID)
	s.NotNil(view.Impression)
	s.NotNil(view.Affection)
	s.Equal(int64(1), view.State.TotalMessages)
}

func (s *ServiceTest) TestListProfiles() {
	s.process(s.event("u1", "m1", "消息一"))
	s.process(s.event("u2", "m1", "消息二"))
	s.completer.reply(constant.PromptIDWeightEvaluation, weightLow, nil)
	s.process(s.event("u3", "m1", "你好"))

	views, merr := s.service.ListProfiles(context.Background(), &model.ListUserCondition{Pager: &model.Pager{Limit: 10}})
	s.Require().Nil(merr)
	s.Len(views, 3)

	views, merr = s.service.ListProfiles(context.Background(), &model.ListUserCondition{Pager: &model.Pager{Limit: 2}})
	s.Require().Nil(merr)
	s.Len(views, 2)
}

func (s *ServiceTest) TestSetAffection() {
	score := 85.0
	affection, merr := s.service.SetAffection(context.Background(), "u1", &model.SetAffectionRequest{Score: &score})
	s.Require().Nil(merr)
	s.Equal(constant.AffectionLevelIntimate.String(), affection.AffectionLevel)
	s.Equal(constant.AffectionChangeReasonManual, affection.ChangeReason)

	stored := s.affection("u1")
	s.Equal(85.0, stored.AffectionScore)
	s.Equal(constant.AffectionLevelIntimate.String(), stored.AffectionLevel)

	bad := 120.0
	_, merr = s.service.SetAffection(context.Background(), "u1", &model.SetAffectionRequest{Score: &bad})
	s.Require().NotNil(merr)
	s.Equal(model.ErrorParams, merr.Code)

	_, merr = s.service.SetAffection(context.Background(), "u1", &model.SetAffectionRequest{})
	s.Require().NotNil(merr)
	s.Equal(model.ErrorParams, merr.Code)
}

func (s *ServiceTest) seedImpression(userID, text, vector string) {
	s.Require().NoError(s.service.withRepositories(context.Background(), func(repos *repositories) error {
		return repos.impressions.Upsert(&model.UpsertImpressionCondition{
			UserID: userID, ImpressionText: text, ImpressionVector: vector, LastUpdated: time.Now(),
		})
	}))
}

func (s *ServiceTest) TestSearchImpressions() {
	query, err := s.embedder.Embed(context.Background(), "登山")
	s.Require().NoError(err)

	s.seedImpression("exact", "喜欢登山", embedding.VectorToString(query))
	s.seedImpression("partial", "喜欢猫", embedding.VectorToString([]float64{query[0], 0, 0}))
	s.seedImpression("short", "维度不同", "[1,2]")
	s.seedImpression("broken", "向量损坏", "[abc]")
	s.seedImpression("empty", "尚无向量", "")

	hits, merr := s.service.SearchImpressions(context.Background(), &model.SearchImpressionsRequest{Query: " 登山 "})
	s.Require().Nil(merr)
	s.Require().Len(hits, 2)
	s.Equal("exact", hits[0].UserID)
	s.Equal("喜欢登山", hits[0].ImpressionText)
	s.InDelta(1.0, hits[0].Similarity, 1e-6)
	s.Equal("partial", hits[1].UserID)
	s.Less(hits[1].Similarity, hits[0].Similarity)

	hits, merr = s.service.SearchImpressions(context.Background(), &model.SearchImpressionsRequest{Query: "登山", Limit: 1})
	s.Require().Nil(merr)
	s.Require().Len(hits, 1)
	s.Equal("exact", hits[0].UserID)
}

func (s *ServiceTest) TestSearchImpressions_Errors() {
	_, merr := s.service.SearchImpressions(context.Background(), &model.SearchImpressionsRequest{Query: "  "})
	s.Require().NotNil(merr)
	s.Equal(model.ErrorParams, merr.Code)

	s.embedder.failAll = true
	_, merr = s.service.SearchImpressions(context.Background(), &model.SearchImpressionsRequest{Query: "登山"})
	s.Require().NotNil(merr)
	s.Equal(model.ErrorOracleUnavailable, merr.Code)
	s.ErrorIs(merr.InnerError, ErrOracleUnavailable)
}
