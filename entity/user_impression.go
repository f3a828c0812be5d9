package entity

import "time"

const (
	TableNameUserImpression = "user_impressions"

	UserImpressionFieldUserID           = "user_id"
	UserImpressionFieldImpressionText   = "impression_text"
	UserImpressionFieldImpressionVector = "impression_vector"
	UserImpressionFieldLastUpdated      = "last_updated"
)

// UserImpression 用户印象，不存在记录即表示尚未初始化
type UserImpression struct {
	UserID           string    `xorm:"pk varchar(128) 'user_id'" json:"user_id"`
	ImpressionText   string    `xorm:"text 'impression_text'" json:"impression_text"`
	ImpressionVector string    `xorm:"text 'impression_vector'" json:"-"`
	LastUpdated      time.Time `xorm:"'last_updated'" json:"last_updated"`
}

func (e *UserImpression) TableName() string {
	return TableNameUserImpression
}
