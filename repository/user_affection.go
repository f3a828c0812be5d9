package repository

import (
	"ai_impression/entity"
	"ai_impression/model"
)

type UserAffectionRepository interface {
	Get(userID string) (*entity.UserAffection, error)
	Upsert(req *model.UpsertAffectionCondition) error
}
