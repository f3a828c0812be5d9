package entity

// Tables 需要同步的全部表
func Tables() []interface{} {
	return []interface{}{
		new(ImpressionMessageRecord),
		new(UserMessageState),
		new(UserImpression),
		new(UserAffection),
	}
}
