package entity

import "time"

const (
	TableNameUserMessageState = "user_message_states"

	UserMessageStateFieldUserID                = "user_id"
	UserMessageStateFieldTotalMessages         = "total_messages"
	UserMessageStateFieldImpressionUpdateCount = "impression_update_count"
	UserMessageStateFieldAffectionUpdateCount  = "affection_update_count"
	UserMessageStateFieldUpdatedAt             = "updated_at"
)

// UserMessageState 用户消息计数
type UserMessageState struct {
	UserID                string    `xorm:"pk varchar(128) 'user_id'" json:"user_id"`
	TotalMessages         int64     `xorm:"notnull default 0 'total_messages'" json:"total_messages"`
	ImpressionUpdateCount int64     `xorm:"notnull default 0 'impression_update_count'" json:"impression_update_count"`
	AffectionUpdateCount  int64     `xorm:"notnull default 0 'affection_update_count'" json:"affection_update_count"`
	UpdatedAt             time.Time `xorm:"'updated_at'" json:"updated_at"`
}

func (e *UserMessageState) TableName() string {
	return TableNameUserMessageState
}
