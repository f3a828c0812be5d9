package xormimplement

import (
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/repository"
	"fmt"

	"xorm.io/builder"
)

type UserAffectionRepository struct {
	session *Session
}

func NewUserAffectionRepository(session *Session) repository.UserAffectionRepository {
	return &UserAffectionRepository{session: session}
}

func (r *UserAffectionRepository) Get(userID string) (*entity.UserAffection, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	result := &entity.UserAffection{}
	ok, err := r.session.Table(entity.TableNameUserAffection).
		Where(builder.Eq{entity.UserAffectionFieldUserID: userID}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get user_affection: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

func (r *UserAffectionRepository) Upsert(req *model.UpsertAffectionCondition) error {
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
		_, err = r.session.Table(entity.TableNameUserAffection).
			Where(builder.Eq{entity.UserAffectionFieldUserID: req.UserID}).
			Update(map[string]interface{}{
				entity.UserAffectionFieldAffectionScore: req.AffectionScore,
				entity.UserAffectionFieldAffectionLevel: req.AffectionLevel,
				entity.UserAffectionFieldChangeReason:   req.ChangeReason,
				entity.UserAffectionFieldLastUpdated:    req.LastUpdated,
			})
		if err != nil {
			return fmt.Errorf("failed to update user_affection: %w", err)
		}
		return nil
	}

	affection := &entity.UserAffection{
		UserID:         req.UserID,
		AffectionScore: req.AffectionScore,
		AffectionLevel: req.AffectionLevel,
		ChangeReason:   req.ChangeReason,
		LastUpdated:    req.LastUpdated,
	}
	if _, err = r.session.Table(entity.TableNameUserAffection).Insert(affection); err != nil {
		return fmt.Errorf("failed to insert user_affection: %w", err)
	}
	return nil
}
