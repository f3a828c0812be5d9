package interfaces

// Session 数据库会话，开启事务后同一会话内的仓库操作处于同一事务
type Session interface {
	Begin() error
	Close() error
	Commit() error
	Rollback() error
}
