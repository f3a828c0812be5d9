package xormimplement

import (
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/repository"
	"fmt"
	"time"

	"xorm.io/builder"
)

type UserMessageStateRepository struct {
	session *Session
}

func NewUserMessageStateRepository(session *Session) repository.UserMessageStateRepository {
	return &UserMessageStateRepository{session: session}
}

func (r *UserMessageStateRepository) Get(userID string) (*entity.UserMessageState, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	result := &entity.UserMessageState{}
	ok, err := r.session.Table(entity.TableNameUserMessageState).
		Where(builder.Eq{entity.UserMessageStateFieldUserID: userID}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get user_message_state: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

// Increment 累加计数，记录不存在时以增量作为初始值插入
func (r *UserMessageStateRepository) Increment(userID string, delta *model.MessageStateDelta) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	if delta == nil {
		return fmt.Errorf("delta cannot be nil")
	}

	now := time.Now()
	affected, err := r.session.Table(entity.TableNameUserMessageState).
		Where(builder.Eq{entity.UserMessageStateFieldUserID: userID}).
		Incr(entity.UserMessageStateFieldTotalMessages, delta.TotalMessages).
		Incr(entity.UserMessageStateFieldImpressionUpdateCount, delta.ImpressionUpdateCount).
		Incr(entity.UserMessageStateFieldAffectionUpdateCount, delta.AffectionUpdateCount).
		Update(map[string]interface{}{
			entity.UserMessageStateFieldUpdatedAt: now,
		})
	if err != nil {
		return fmt.Errorf("failed to increment user_message_state: %w", err)
	}
	if affected > 0 {
		return nil
	}

	state := &entity.UserMessageState{
		UserID:                userID,
		TotalMessages:         delta.TotalMessages,
		ImpressionUpdateCount: delta.ImpressionUpdateCount,
		AffectionUpdateCount:  delta.AffectionUpdateCount,
		UpdatedAt:             now,
	}
	if _, err = r.session.Table(entity.TableNameUserMessageState).Insert(state); err != nil {
		return fmt.Errorf("failed to insert user_message_state: %w", err)
	}
	return nil
}

func (r *UserMessageStateRepository) List(condition *model.ListUserCondition) ([]*entity.UserMessageState, error) {
	if condition == nil {
		return nil, fmt.Errorf("list condition cannot be nil")
	}

	session := r.session.Table(entity.TableNameUserMessageState)
	pagerOrder(session, condition, WithDefaultOrderField(entity.UserMessageStateFieldUpdatedAt))

	var results []*entity.UserMessageState
	if err := session.Find(&results); err != nil {
		return nil, fmt.Errorf("failed to list user_message_state: %w", err)
	}
	return results, nil
}
