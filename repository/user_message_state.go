package repository

import (
	"ai_impression/entity"
	"ai_impression/model"
)

type UserMessageStateRepository interface {
	Get(userID string) (*entity.UserMessageState, error)
	Increment(userID string, delta *model.MessageStateDelta) error
	List(condition *model.ListUserCondition) ([]*entity.UserMessageState, error)
}
