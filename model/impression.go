package model

import (
	"ai_impression/entity"
	ptime "ai_impression/pkg/time"
	"time"
)

// MessageEvent 宿主转发的消息事件
type MessageEvent struct {
	UserID         string `json:"user_id" binding:"required"`
	MessageID      string `json:"message_id"`
	MessageContent string `json:"message_content" binding:"required"`
	// Timestamp 秒级时间戳，为 0 时取接收时间
	Timestamp int64 `json:"timestamp"`
}

// Time 消息时间
func (e *MessageEvent) Time() time.Time {
	return ptime.FromUnixOrNow(e.Timestamp)
}

// ListMessageRecordCondition 消息记录查询条件
type ListMessageRecordCondition struct {
	UserID           string     `json:"user_id"`
	Admitted         *bool      `json:"admitted"`
	Processed        *bool      `json:"processed"`
	ExcludeMessageID string     `json:"exclude_message_id"`
	Since            *time.Time `json:"since"`
	// Before 只取严格早于该时间的消息，时间相同时按 BeforeID 比较 id
	Before   *time.Time `json:"before"`
	BeforeID int64      `json:"before_id"`
	*Pager
	*Order
}

func (c *ListMessageRecordCondition) GetPager() *Pager {
	return c.Pager
}

func (c *ListMessageRecordCondition) GetOrder() *Order {
	return c.Order
}

// UpdateWeightCondition 写入权重评估结果
type UpdateWeightCondition struct {
	WeightScore    float64 `json:"weight_score"`
	WeightFallback bool    `json:"weight_fallback"`
	WeightLevel    string  `json:"weight_level"`
	WeightReason   string  `json:"weight_reason"`
}

// UpsertImpressionCondition 印象写入条件
type UpsertImpressionCondition struct {
	UserID           string    `json:"user_id"`
	ImpressionText   string    `json:"impression_text"`
	ImpressionVector string    `json:"impression_vector"`
	LastUpdated      time.Time `json:"last_updated"`
}

// UpsertAffectionCondition 好感度写入条件
type UpsertAffectionCondition struct {
	UserID         string    `json:"user_id"`
	AffectionScore float64   `json:"affection_score"`
	AffectionLevel string    `json:"affection_level"`
	ChangeReason   string    `json:"change_reason"`
	LastUpdated    time.Time `json:"last_updated"`
}

// MessageStateDelta 用户消息计数增量
type MessageStateDelta struct {
	TotalMessages         int64
	ImpressionUpdateCount int64
	AffectionUpdateCount  int64
}

// ListUserCondition 用户列表分页条件
type ListUserCondition struct {
	*Pager
	*Order
}

func (c *ListUserCondition) GetPager() *Pager {
	return c.Pager
}

func (c *ListUserCondition) GetOrder() *Order {
	return c.Order
}

// ProcessMessageResponse 单条消息处理结果
type ProcessMessageResponse struct {
	UserID         string                 `json:"user_id"`
	MessageID      string                 `json:"message_id"`
	Outcome        string                 `json:"outcome"`
	WeightScore    *float64               `json:"weight_score,omitempty"`
	WeightLevel    string                 `json:"weight_level,omitempty"`
	WeightFallback bool                   `json:"weight_fallback,omitempty"`
	Impression     *entity.UserImpression `json:"impression,omitempty"`
	Affection      *entity.UserAffection  `json:"affection,omitempty"`
}

// UserProfileView 用户画像视图
type UserProfileView struct {
	UserID     string                   `json:"user_id"`
	Impression *entity.UserImpression   `json:"impression"`
	Affection  *entity.UserAffection    `json:"affection"`
	State      *entity.UserMessageState `json:"state"`
}

// SearchImpressionsRequest 按语义检索用户印象
type SearchImpressionsRequest struct {
	Query string `form:"q" json:"q"`
	Limit int    `form:"limit" json:"limit"`
}

// ImpressionSearchHit 印象检索结果，按相似度降序
type ImpressionSearchHit struct {
	UserID         string    `json:"user_id"`
	ImpressionText string    `json:"impression_text"`
	Similarity     float64   `json:"similarity"`
	LastUpdated    time.Time `json:"last_updated"`
}

// SetAffectionRequest 手动设置好感度
type SetAffectionRequest struct {
	Score  *float64 `json:"score" binding:"required"`
	Reason string   `json:"reason"`
}

// EnqueueResponse 异步入队结果
type EnqueueResponse struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Queued    bool   `json:"queued"`
}

// RetryResult 未处理消息重试结果
type RetryResult struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
