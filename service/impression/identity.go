package impression

import (
	"ai_impression/constant"
	"ai_impression/model"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NormalizeUserID 去掉首尾空白和 "platform:" 前缀
func NormalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if i := strings.Index(userID, ":"); i >= 0 {
		userID = strings.TrimSpace(userID[i+1:])
	}
	return userID
}

// DeriveMessageID 宿主未提供消息 ID 时按用户、时间戳、内容派生，同一事件重放得到相同的 ID
func DeriveMessageID(userID string, timestamp int64, content string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", userID, timestamp, content)))
	return constant.DerivedMessageIDPrefix + hex.EncodeToString(sum[:])[:16]
}

// ResolveIdentity 返回事件归一化后的用户 ID 和消息 ID
// 缺少时间戳时以接收时间 now 补齐并写回事件，派生 ID 和消息时间保持一致
func ResolveIdentity(event *model.MessageEvent, now time.Time) (string, string) {
	if event.Timestamp <= 0 {
		event.Timestamp = now.Unix()
	}
	userID := NormalizeUserID(event.UserID)
	messageID := strings.TrimSpace(event.MessageID)
	if messageID == constant.EmptyString {
		messageID = DeriveMessageID(userID, event.Timestamp, event.MessageContent)
	}
	return userID, messageID
}
