package xormimplement

import (
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/repository"
	"fmt"

	"xorm.io/builder"
)

type UserImpressionRepository struct {
	session *Session
}

func NewUserImpressionRepository(session *Session) repository.UserImpressionRepository {
	return &UserImpressionRepository{session: session}
}

func (r *UserImpressionRepository) Get(userID string) (*entity.UserImpression, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	result := &entity.UserImpression{}
	ok, err := r.session.Table(entity.TableNameUserImpression).
		Where(builder.Eq{entity.UserImpressionFieldUserID: userID}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get user_impression: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

func (r *UserImpressionRepository) Upsert(req *model.UpsertImpressionCondition) error {
	if req == nil {
		return fmt.Errorf("upsert request cannot be nil")
	}
	if req.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	existing, err := r.Get(req.UserID)
	if err != nil {
		return err
	}

	if existing != nil {
		_, err = r.session.Table(entity.TableNameUserImpression).
			Where(builder.Eq{entity.UserImpressionFieldUserID: req.UserID}).
			Update(map[string]interface{}{
				entity.UserImpressionFieldImpressionText:   req.ImpressionText,
				entity.UserImpressionFieldImpressionVector: req.ImpressionVector,
				entity.UserImpressionFieldLastUpdated:      req.LastUpdated,
			})
		if err != nil {
			return fmt.Errorf("failed to update user_impression: %w", err)
		}
		return nil
	}

	impression := &entity.UserImpression{
		UserID:           req.UserID,
		ImpressionText:   req.ImpressionText,
		ImpressionVector: req.ImpressionVector,
		LastUpdated:      req.LastUpdated,
	}
	if _, err = r.session.Table(entity.TableNameUserImpression).Insert(impression); err != nil {
		return fmt.Errorf("failed to insert user_impression: %w", err)
	}
	return nil
}

func (r *UserImpressionRepository) ListWithVector() ([]*entity.UserImpression, error) {
	result := make([]*entity.UserImpression, 0)
	err := r.session.Table(entity.TableNameUserImpression).
		Where(builder.Neq{entity.UserImpressionFieldImpressionVector: ""}).
		And(builder.NotNull{entity.UserImpressionFieldImpressionVector}).
		Asc(entity.UserImpressionFieldUserID).
		Find(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to list user_impression: %w", err)
	}
	return result, nil
}
