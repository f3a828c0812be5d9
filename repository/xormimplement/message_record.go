package xormimplement

import (
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/repository"
	"fmt"
	"time"

	"xorm.io/builder"
)

type MessageRecordRepository struct {
	session *Session
}

func NewMessageRecordRepository(session *Session) repository.MessageRecordRepository {
	return &MessageRecordRepository{session: session}
}

func (r *MessageRecordRepository) Insert(record *entity.ImpressionMessageRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.UserID == "" || record.MessageID == "" {
		return fmt.Errorf("user_id and message_id are required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.session.Table(entity.TableNameImpressionMessageRecord).Insert(record); err != nil {
		return fmt.Errorf("failed to insert message record: %w", err)
	}
	return nil
}

func (r *MessageRecordRepository) Get(userID, messageID string) (*entity.ImpressionMessageRecord, error) {
	if userID == "" || messageID == "" {
		return nil, fmt.Errorf("user_id and message_id are required")
	}

	result := &entity.ImpressionMessageRecord{}
	ok, err := r.session.Table(entity.TableNameImpressionMessageRecord).
		Where(builder.Eq{
			entity.MessageRecordFieldUserID:    userID,
			entity.MessageRecordFieldMessageID: messageID,
		}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get message record: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

func (r *MessageRecordRepository) UpdateWeight(id int64, cond *model.UpdateWeightCondition) error {
	if cond == nil {
		return fmt.Errorf("update weight condition cannot be nil")
	}

	_, err := r.session.Table(entity.TableNameImpressionMessageRecord).
		Where(builder.Eq{entity.MessageRecordFieldID: id}).
		Update(map[string]interface{}{
			entity.MessageRecordFieldWeightScore:    cond.WeightScore,
			entity.MessageRecordFieldWeightFallback: cond.WeightFallback,
			entity.MessageRecordFieldWeightLevel:    cond.WeightLevel,
			entity.MessageRecordFieldWeightReason:   cond.WeightReason,
		})
	if err != nil {
		return fmt.Errorf("failed to update message weight: %w", err)
	}
	return nil
}

func (r *MessageRecordRepository) MarkAdmitted(id int64) error {
	_, err := r.session.Table(entity.TableNameImpressionMessageRecord).
		Where(builder.Eq{entity.MessageRecordFieldID: id}).
		Update(map[string]interface{}{
			entity.MessageRecordFieldAdmitted: true,
		})
	if err != nil {
		return fmt.Errorf("failed to mark message admitted: %w", err)
	}
	return nil
}

func (r *MessageRecordRepository) MarkProcessed(id int64, processedAt time.Time) (bool, error) {
	affected, err := r.session.Table(entity.TableNameImpressionMessageRecord).
		Where(builder.Eq{
			entity.MessageRecordFieldID:        id,
			entity.MessageRecordFieldProcessed: false,
		}).
		Update(map[string]interface{}{
			entity.MessageRecordFieldProcessed:   true,
			entity.MessageRecordFieldProcessedAt: processedAt,
		})
	if err != nil {
		return false, fmt.Errorf("failed to mark message processed: %w", err)
	}
	return affected > 0, nil
}

func (r *MessageRecordRepository) List(condition *model.ListMessageRecordCondition) ([]*entity.ImpressionMessageRecord, error) {
	if condition == nil {
		return nil, fmt.Errorf("list condition cannot be nil")
	}

	session := r.session.Table(entity.TableNameImpressionMessageRecord)
	var conds []builder.Cond

	if condition.UserID != "" {
		conds = append(conds, builder.Eq{entity.MessageRecordFieldUserID: condition.UserID})
	}
	if condition.Admitted != nil {
		conds = append(conds, builder.Eq{entity.MessageRecordFieldAdmitted: *condition.Admitted})
	}
	if condition.Processed != nil {
		conds = append(conds, builder.Eq{entity.MessageRecordFieldProcessed: *condition.Processed})
	}
	if condition.ExcludeMessageID != "" {
		conds = append(conds, builder.Neq{entity.MessageRecordFieldMessageID: condition.ExcludeMessageID})
	}
	if condition.Since != nil {
		conds = append(conds, builder.Gte{entity.MessageRecordFieldMessageTime: *condition.Since})
	}
	if condition.Before != nil {
		before := builder.Cond(builder.Lt{entity.MessageRecordFieldMessageTime: *condition.Before})
		if condition.BeforeID > 0 {
			before = builder.Or(before, builder.And(
				builder.Eq{entity.MessageRecordFieldMessageTime: *condition.Before},
				builder.Lt{entity.MessageRecordFieldID: condition.BeforeID},
			))
		}
		conds = append(conds, before)
	}

	if len(conds) > 0 {
		session = session.Where(builder.And(conds...))
	}
	// id 作为次级排序，保证同一时间的消息顺序稳定
	pagerOrder(session, condition,
		WithDefaultOrderField(entity.MessageRecordFieldMessageTime),
		WithSecondaryOrderField(entity.MessageRecordFieldID))

	var results []*entity.ImpressionMessageRecord
	if err := session.Find(&results); err != nil {
		return nil, fmt.Errorf("failed to list message records: %w", err)
	}
	return results, nil
}
