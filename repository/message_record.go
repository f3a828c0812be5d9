package repository

import (
	"ai_impression/entity"
	"ai_impression/model"
	"time"
)

type MessageRecordRepository interface {
	Insert(record *entity.ImpressionMessageRecord) error
	Get(userID, messageID string) (*entity.ImpressionMessageRecord, error)
	UpdateWeight(id int64, cond *model.UpdateWeightCondition) error
	MarkAdmitted(id int64) error
	// MarkProcessed 仅当记录未处理时置为已处理，返回是否发生了变更
	MarkProcessed(id int64, processedAt time.Time) (bool, error)
	List(condition *model.ListMessageRecordCondition) ([]*entity.ImpressionMessageRecord, error)
}
