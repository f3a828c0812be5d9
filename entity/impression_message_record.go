package entity

import "time"

const (
	TableNameImpressionMessageRecord = "impression_message_records"

	MessageRecordFieldID             = "id"
	MessageRecordFieldUserID         = "user_id"
	MessageRecordFieldMessageID      = "message_id"
	MessageRecordFieldMessageContent = "message_content"
	MessageRecordFieldContentHash    = "content_hash"
	MessageRecordFieldMessageVector  = "message_vector"
	MessageRecordFieldWeightScore    = "weight_score"
	MessageRecordFieldWeightFallback = "weight_fallback"
	MessageRecordFieldWeightLevel    = "weight_level"
	MessageRecordFieldWeightReason   = "weight_reason"
	MessageRecordFieldAdmitted       = "admitted"
	MessageRecordFieldProcessed      = "processed"
	MessageRecordFieldMessageTime    = "message_time"
	MessageRecordFieldCreatedAt      = "created_at"
	MessageRecordFieldProcessedAt    = "processed_at"
)

// ImpressionMessageRecord 每个用户的每条消息一条记录
// MessageVector 为空串表示向量化失败；WeightScore 为 nil 表示尚未评估
type ImpressionMessageRecord struct {
	ID             int64      `xorm:"pk autoincr 'id'" json:"id"`
	UserID         string     `xorm:"varchar(128) notnull unique(uq_user_message) index 'user_id'" json:"user_id"`
	MessageID      string     `xorm:"varchar(128) notnull unique(uq_user_message) 'message_id'" json:"message_id"`
	MessageContent string     `xorm:"text 'message_content'" json:"message_content"`
	ContentHash    string     `xorm:"varchar(64) 'content_hash'" json:"content_hash"`
	MessageVector  string     `xorm:"text 'message_vector'" json:"-"`
	WeightScore    *float64   `xorm:"double 'weight_score'" json:"weight_score"`
	WeightFallback bool       `xorm:"'weight_fallback'" json:"weight_fallback"`
	WeightLevel    string     `xorm:"varchar(16) 'weight_level'" json:"weight_level"`
	WeightReason   string     `xorm:"text 'weight_reason'" json:"weight_reason"`
	Admitted       bool       `xorm:"'admitted'" json:"admitted"`
	Processed      bool       `xorm:"notnull default false index 'processed'" json:"processed"`
	MessageTime    time.Time  `xorm:"'message_time'" json:"message_time"`
	CreatedAt      time.Time  `xorm:"'created_at'" json:"created_at"`
	ProcessedAt    *time.Time `xorm:"'processed_at'" json:"processed_at"`
}

func (e *ImpressionMessageRecord) TableName() string {
	return TableNameImpressionMessageRecord
}

// HasVector 是否存在可用的消息向量
func (e *ImpressionMessageRecord) HasVector() bool {
	return e.MessageVector != ""
}
