package impression

import (
	"ai_impression/constant"
	"ai_impression/entity"
	"ai_impression/model"
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryPending 重新执行未处理的消息，按消息时间正序，最多 limit 条
func (s *Service) RetryPending(ctx context.Context, limit int) (*model.RetryResult, error) {
	result := &model.RetryResult{}

	opts, err := s.loadOptions()
	if err != nil {
		return nil, err
	}
	if !opts.PluginEnabled {
		return result, nil
	}
	if limit <= 0 {
		limit = constant.DefaultRetryBatchSize
	}

	processed := false
	var records []*entity.ImpressionMessageRecord
	err = s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		records, err = repos.records.List(&model.ListMessageRecordCondition{
			Processed: &processed,
			Pager:     &model.Pager{Limit: limit},
			Order:     &model.Order{OrderBy: entity.MessageRecordFieldMessageTime, OrderAsc: true},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		resp, err := s.process(ctx, record.UserID, record.MessageID, record.MessageContent, record.MessageTime)
		if err != nil {
			result.Failed++
			continue
		}
		switch constant.Outcome(resp.Outcome) {
		case constant.OutcomeUpdated:
			result.Updated++
		case constant.OutcomeRejected:
			result.Rejected++
		default:
			result.Skipped++
		}
	}

	if result.Scanned > 0 {
		log.Infof("retry pending messages: scanned=%d updated=%d rejected=%d skipped=%d failed=%d",
			result.Scanned, result.Updated, result.Rejected, result.Skipped, result.Failed)
	}
	return result, nil
}

// RunRetryLoop 按固定间隔重试未处理消息，ctx 结束时返回
func (s *Service) RunRetryLoop(ctx context.Context, interval time.Duration, batchSize int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("retry loop start, interval=%s batch=%d", interval, batchSize)
	defer log.Infof("retry loop stop")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RetryPending(ctx, batchSize); err != nil && ctx.Err() == nil {
				log.Errorf("retry pending messages error: %v", err)
			}
		}
	}
}
