package repository

import (
	"ai_impression/entity"
	"ai_impression/model"
)

type UserImpressionRepository interface {
	Get(userID string) (*entity.UserImpression, error)
	Upsert(req *model.UpsertImpressionCondition) error
	// ListWithVector 列出已有印象向量的用户印象
	ListWithVector() ([]*entity.UserImpression, error)
}
