package impression

import (
	"ai_impression/config"
	"ai_impression/constant"
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/pkg/clients/embedding"
	"ai_impression/pkg/profile"
	"ai_impression/pkg/prompt"
	"ai_impression/pkg/str"
	ptime "ai_impression/pkg/time"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	oracleLLM       = "llm"
	oracleEmbedding = "embedding"

	emptyImpression = "暂无"
	emptyContext    = "暂无"
)

// pipelineRun 一次流水线执行的状态
type pipelineRun struct {
	opts      *config.PipelineOptions
	userID    string
	messageID string
	content   string
	msgTime   time.Time
	logger    *log.Entry
}

// ProcessMessage 处理一条消息：入库、权重评估、准入、上下文检索、画像更新
// 同一用户的执行被串行化，失败时消息保持未处理，可被重试
func (s *Service) ProcessMessage(ctx context.Context, event *model.MessageEvent) (*model.ProcessMessageResponse, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	userID, messageID := ResolveIdentity(event, s.now())
	if userID == constant.EmptyString {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidEvent)
	}
	if strings.TrimSpace(event.MessageContent) == constant.EmptyString {
		return nil, fmt.Errorf("%w: empty message content", ErrInvalidEvent)
	}
	return s.process(ctx, userID, messageID, event.MessageContent, event.Time())
}

func (s *Service) process(ctx context.Context, userID, messageID, content string, msgTime time.Time) (*model.ProcessMessageResponse, error) {
	start := s.now()

	opts, err := s.loadOptions()
	if err != nil {
		return nil, err
	}
	resp := &model.ProcessMessageResponse{UserID: userID, MessageID: messageID}
	if !opts.PluginEnabled {
		resp.Outcome = constant.OutcomeDisabled.String()
		return resp, nil
	}

	run := &pipelineRun{
		opts:      opts,
		userID:    userID,
		messageID: messageID,
		content:   content,
		msgTime:   msgTime,
		logger:    log.WithFields(log.Fields{"user_id": userID, "message_id": messageID}),
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	err = s.runLocked(ctx, run, resp)
	if err != nil {
		resp.Outcome = constant.OutcomeFailed.String()
		run.logger.Warnf("impression pipeline failed: %v", err)
	}
	s.metrics.ObserveOutcome(resp.Outcome, s.now().Sub(start))
	return resp, err
}

func (s *Service) runLocked(ctx context.Context, run *pipelineRun, resp *model.ProcessMessageResponse) error {
	record, err := s.intake(ctx, run)
	if err != nil {
		return err
	}
	if record.Processed {
		fillWeight(resp, record)
		resp.Outcome = constant.OutcomeDuplicate.String()
		return nil
	}

	if err := s.evaluateWeight(ctx, run, record); err != nil {
		return err
	}
	fillWeight(resp, record)

	admitted, err := s.admit(ctx, run, record)
	if err != nil {
		return err
	}
	if !admitted {
		resp.Outcome = constant.OutcomeRejected.String()
		return nil
	}

	contextRecords, err := s.retrieveContext(ctx, run, record)
	if err != nil {
		return err
	}

	impression, affection, err := s.updateProfile(ctx, run, record, contextRecords)
	if errors.Is(err, ErrDuplicateMessage) {
		resp.Outcome = constant.OutcomeDuplicate.String()
		return nil
	}
	if err != nil {
		return err
	}

	resp.Impression = impression
	resp.Affection = affection
	resp.Outcome = constant.OutcomeUpdated.String()
	return nil
}

func fillWeight(resp *model.ProcessMessageResponse, record *entity.ImpressionMessageRecord) {
	resp.WeightScore = record.WeightScore
	resp.WeightLevel = record.WeightLevel
	resp.WeightFallback = record.WeightFallback
}

// intake 已存在的记录直接返回；新消息向量化后入库并计入 total_messages
func (s *Service) intake(ctx context.Context, run *pipelineRun) (*entity.ImpressionMessageRecord, error) {
	var existing *entity.ImpressionMessageRecord
	err := s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		existing, err = repos.records.Get(run.userID, run.messageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	record := &entity.ImpressionMessageRecord{
		UserID:         run.userID,
		MessageID:      run.messageID,
		MessageContent: run.content,
		ContentHash:    contentHash(run.content),
		MessageTime:    run.msgTime,
		CreatedAt:      s.now(),
	}

	vector, err := s.embedder.Embed(ctx, run.content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.metrics.OracleFailure(oracleEmbedding, "message")
		run.logger.Warnf("message embedding failed, storing without vector: %v", err)
	} else {
		record.MessageVector = embedding.VectorToString(vector)
	}

	err = s.inTx(ctx, func(repos *repositories) error {
		if err := repos.records.Insert(record); err != nil {
			return err
		}
		return repos.states.Increment(run.userID, &model.MessageStateDelta{TotalMessages: 1})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// evaluateWeight 已有权重时直接复用；模型失败或返回无法解析时使用兜底分数
func (s *Service) evaluateWeight(ctx context.Context, run *pipelineRun, record *entity.ImpressionMessageRecord) error {
	opts := run.opts
	if record.WeightScore != nil || !opts.WeightFilterEnabled {
		return nil
	}

	history, err := s.historyContext(ctx, run, record)
	if err != nil {
		return err
	}

	cond := &model.UpdateWeightCondition{}
	raw, err := s.completer.Complete(ctx, &prompt.Request{
		TemplateID: constant.PromptIDWeightEvaluation,
		Template:   opts.Templates[constant.PromptIDWeightEvaluation],
		Variables: map[string]string{
			constant.PromptVarMessage: str.TruncateHead(run.content, opts.MaxMessageChars),
			constant.PromptVarContext: history,
		},
	})
	var verdict *profile.WeightVerdict
	if err == nil {
		verdict, err = profile.ParseWeightResponse(raw)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.metrics.OracleFailure(oracleLLM, constant.PromptIDWeightEvaluation)
		s.metrics.WeightFallback()
		run.logger.Warnf("weight evaluation failed, using fallback score %.2f: %v", opts.FallbackScore, err)
		cond.WeightScore = profile.ClampWeight(opts.FallbackScore)
		cond.WeightFallback = true
		cond.WeightReason = "fallback: " + err.Error()
	} else {
		cond.WeightScore = verdict.Score
		cond.WeightReason = verdict.Reason
	}
	cond.WeightLevel = profile.ClassifyWeight(cond.WeightScore, opts.HighWeightThreshold, opts.MediumWeightThreshold).String()

	err = s.withRepositories(ctx, func(repos *repositories) error {
		return repos.records.UpdateWeight(record.ID, cond)
	})
	if err != nil {
		return err
	}

	score := cond.WeightScore
	record.WeightScore = &score
	record.WeightFallback = cond.WeightFallback
	record.WeightLevel = cond.WeightLevel
	record.WeightReason = cond.WeightReason
	run.logger.Debugf("weight evaluated: score=%.2f level=%s fallback=%t", score, cond.WeightLevel, cond.WeightFallback)
	return nil
}

// historyContext 权重评估用的近期历史，只取早于当前消息的记录，按时间正序拼接
func (s *Service) historyContext(ctx context.Context, run *pipelineRun, record *entity.ImpressionMessageRecord) (string, error) {
	opts := run.opts
	msgTime := record.MessageTime
	cond := &model.ListMessageRecordCondition{
		UserID:           run.userID,
		ExcludeMessageID: run.messageID,
		Since:            ptime.HoursBefore(msgTime, opts.HistoryHoursBack),
		Before:           &msgTime,
		BeforeID:         record.ID,
	}
	if opts.HistoryMaxMessages > 0 {
		// 多取一些，过短的消息会被过滤
		cond.Pager = &model.Pager{Limit: opts.HistoryMaxMessages * 2}
	}

	var records []*entity.ImpressionMessageRecord
	err := s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		records, err = repos.records.List(cond)
		return err
	})
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		contents = append(contents, str.TruncateHead(records[i].MessageContent, opts.MaxMessageChars))
	}
	history := profile.BuildHistory(contents, profile.HistoryOptions{
		MaxMessages: opts.HistoryMaxMessages,
		MinLength:   opts.HistoryMinMessageLength,
		MaxChars:    opts.MaxHistoryChars,
	})
	if history == constant.EmptyString {
		return emptyContext, nil
	}
	return history, nil
}

// admit 未准入的消息直接标记为已处理
func (s *Service) admit(ctx context.Context, run *pipelineRun, record *entity.ImpressionMessageRecord) (bool, error) {
	opts := run.opts
	admitted := true
	if opts.WeightFilterEnabled && record.WeightScore != nil {
		admitted = profile.Admit(*record.WeightScore, opts.FilterMode, opts.HighWeightThreshold, opts.MediumWeightThreshold)
	}

	err := s.withRepositories(ctx, func(repos *repositories) error {
		if !admitted {
			_, err := repos.records.MarkProcessed(record.ID, s.now())
			return err
		}
		if record.Admitted {
			return nil
		}
		return repos.records.MarkAdmitted(record.ID)
	})
	if err != nil {
		return false, err
	}

	if !admitted {
		record.Processed = true
		run.logger.Debugf("message rejected by %s filter", opts.FilterMode)
		return false, nil
	}
	record.Admitted = true
	return true, nil
}

// retrieveContext 从早于当前消息的已准入消息中选出不超过 max_context_entries 条
func (s *Service) retrieveContext(ctx context.Context, run *pipelineRun, record *entity.ImpressionMessageRecord) ([]*entity.ImpressionMessageRecord, error) {
	opts := run.opts
	if opts.MaxContextEntries <= 0 {
		return []*entity.ImpressionMessageRecord{}, nil
	}

	window := opts.MaxContextEntries * opts.CandidateWindow
	if window < opts.MaxContextEntries {
		window = opts.MaxContextEntries
	}
	admitted := true
	msgTime := record.MessageTime
	var records []*entity.ImpressionMessageRecord
	err := s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		records, err = repos.records.List(&model.ListMessageRecordCondition{
			UserID:           run.userID,
			Admitted:         &admitted,
			ExcludeMessageID: run.messageID,
			Before:           &msgTime,
			BeforeID:         record.ID,
			Pager:            &model.Pager{Limit: window},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]profile.ContextCandidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, profile.ContextCandidate{Record: r, Vector: parseVector(r)})
	}
	return s.newRanker(opts).Rank(parseVector(record), candidates, opts.MaxContextEntries), nil
}

func parseVector(record *entity.ImpressionMessageRecord) []float64 {
	if !record.HasVector() {
		return nil
	}
	vector, err := embedding.StringToVector(record.MessageVector)
	if err != nil {
		log.Warnf("message %d has unreadable vector: %v", record.ID, err)
		return nil
	}
	return vector
}

// updateProfile 并发执行印象合并与好感度评估，全部成功后在一个事务中提交
func (s *Service) updateProfile(ctx context.Context, run *pipelineRun, record *entity.ImpressionMessageRecord, contextRecords []*entity.ImpressionMessageRecord) (*entity.UserImpression, *entity.UserAffection, error) {
	var (
		current          *entity.UserImpression
		currentAffection *entity.UserAffection
	)
	err := s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		if current, err = repos.impressions.Get(run.userID); err != nil {
			return err
		}
		currentAffection, err = repos.affections.Get(run.userID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	contextText := joinContext(contextRecords, run.opts.MaxHistoryChars)
	now := s.now()

	impression := &entity.UserImpression{UserID: run.userID, LastUpdated: now}
	affection := &entity.UserAffection{UserID: run.userID, LastUpdated: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, vector, err := s.mergeImpression(gctx, run, current, contextText)
		if err != nil {
			return err
		}
		impression.ImpressionText = text
		impression.ImpressionVector = embedding.VectorToString(vector)
		return nil
	})
	g.Go(func() error {
		score, reason, err := s.evaluateAffection(gctx, run, currentAffection, contextText)
		if err != nil {
			return err
		}
		affection.AffectionScore = score
		affection.AffectionLevel = profile.AffectionLevelOf(score).String()
		affection.ChangeReason = reason
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// 宿主已取消时放弃提交
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	err = s.inTx(ctx, func(repos *repositories) error {
		changed, err := repos.records.MarkProcessed(record.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return ErrDuplicateMessage
		}
		if err := repos.impressions.Upsert(&model.UpsertImpressionCondition{
			UserID:           impression.UserID,
			ImpressionText:   impression.ImpressionText,
			ImpressionVector: impression.ImpressionVector,
			LastUpdated:      impression.LastUpdated,
		}); err != nil {
			return err
		}
		if err := repos.affections.Upsert(&model.UpsertAffectionCondition{
			UserID:         affection.UserID,
			AffectionScore: affection.AffectionScore,
			AffectionLevel: affection.AffectionLevel,
			ChangeReason:   affection.ChangeReason,
			LastUpdated:    affection.LastUpdated,
		}); err != nil {
			return err
		}
		return repos.states.Increment(run.userID, &model.MessageStateDelta{
			ImpressionUpdateCount: 1,
			AffectionUpdateCount:  1,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	record.Processed = true
	run.logger.Infof("profile updated: affection=%.1f(%s)", affection.AffectionScore, affection.AffectionLevel)
	return impression, affection, nil
}

func (s *Service) mergeImpression(ctx context.Context, run *pipelineRun, current *entity.UserImpression, contextText string) (string, []float64, error) {
	existing := emptyImpression
	if current != nil && strings.TrimSpace(current.ImpressionText) != constant.EmptyString {
		existing = current.ImpressionText
	}

	raw, err := s.completer.Complete(ctx, &prompt.Request{
		TemplateID: constant.PromptIDImpression,
		Template:   run.opts.Templates[constant.PromptIDImpression],
		Variables: map[string]string{
			constant.PromptVarExistingImpression: existing,
			constant.PromptVarHistoryContext:     contextText,
			constant.PromptVarMessage:            str.TruncateHead(run.content, run.opts.MaxMessageChars),
		},
	})
	if err != nil {
		s.metrics.OracleFailure(oracleLLM, constant.PromptIDImpression)
		return "", nil, fmt.Errorf("%w: impression merge: %w", ErrOracleUnavailable, err)
	}
	text, err := profile.ParseImpressionResponse(raw)
	if err != nil {
		s.metrics.OracleFailure(oracleLLM, constant.PromptIDImpression)
		return "", nil, err
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.metrics.OracleFailure(oracleEmbedding, constant.PromptIDImpression)
		return "", nil, fmt.Errorf("%w: impression embedding: %w", ErrOracleUnavailable, err)
	}
	return text, vector, nil
}

func (s *Service) evaluateAffection(ctx context.Context, run *pipelineRun, current *entity.UserAffection, contextText string) (float64, string, error) {
	score := constant.AffectionScoreInitial
	if current != nil {
		score = current.AffectionScore
	}

	raw, err := s.completer.Complete(ctx, &prompt.Request{
		TemplateID: constant.PromptIDAffection,
		Template:   run.opts.Templates[constant.PromptIDAffection],
		Variables: map[string]string{
			constant.PromptVarAffectionScore: strconv.FormatFloat(score, 'f', 1, 64),
			constant.PromptVarAffectionLevel: profile.AffectionLevelOf(score).String(),
			constant.PromptVarHistoryContext: contextText,
			constant.PromptVarMessage:        str.TruncateHead(run.content, run.opts.MaxMessageChars),
		},
	})
	if err != nil {
		s.metrics.OracleFailure(oracleLLM, constant.PromptIDAffection)
		return 0, "", fmt.Errorf("%w: affection update: %w", ErrOracleUnavailable, err)
	}
	verdict, err := profile.ParseAffectionResponse(raw)
	if err != nil {
		s.metrics.OracleFailure(oracleLLM, constant.PromptIDAffection)
		return 0, "", err
	}

	next := profile.ApplyAffection(score, verdict, profile.AffectionIncrements{
		Friendly: run.opts.FriendlyIncrement,
		Neutral:  run.opts.NeutralIncrement,
		Negative: run.opts.NegativeIncrement,
	})
	return next, verdict.Reason, nil
}

// joinContext 按排序结果拼接上下文，最相关的在前，超长时截掉末尾
func joinContext(records []*entity.ImpressionMessageRecord, maxChars int) string {
	if len(records) == 0 {
		return emptyContext
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		content := strings.TrimSpace(r.MessageContent)
		if content == constant.EmptyString {
			continue
		}
		lines = append(lines, "- "+content)
	}
	if len(lines) == 0 {
		return emptyContext
	}
	return str.TruncateHead(strings.Join(lines, "\n"), maxChars)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
