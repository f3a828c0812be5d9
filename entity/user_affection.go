package entity

import "time"

const (
	TableNameUserAffection = "user_affections"

	UserAffectionFieldUserID         = "user_id"
	UserAffectionFieldAffectionScore = "affection_score"
	UserAffectionFieldAffectionLevel = "affection_level"
	UserAffectionFieldChangeReason   = "change_reason"
	UserAffectionFieldLastUpdated    = "last_updated"
)

// UserAffection 用户好感度
type UserAffection struct {
	UserID         string    `xorm:"pk varchar(128) 'user_id'" json:"user_id"`
	AffectionScore float64   `xorm:"double notnull 'affection_score'" json:"affection_score"`
	AffectionLevel string    `xorm:"varchar(32) 'affection_level'" json:"affection_level"`
	ChangeReason   string    `xorm:"text 'change_reason'" json:"change_reason"`
	LastUpdated    time.Time `xorm:"'last_updated'" json:"last_updated"`
}

func (e *UserAffection) TableName() string {
	return TableNameUserAffection
}
