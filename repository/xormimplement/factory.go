package xormimplement

import (
	"ai_impression/config"
	"ai_impression/entity"
	"ai_impression/repository"
	"ai_impression/repository/factory"
	"ai_impression/repository/interfaces"
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"xorm.io/xorm"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DBTypePostgres = "postgres"
	DBTypeSqlite   = "sqlite3"
)

var once sync.Once
var instance *Factory

type Factory struct {
	engine *xorm.Engine
}

// GetRepositoryFactoryInstance 获取一个 factory 实例
func GetRepositoryFactoryInstance() *Factory {
	once.Do(func() {
		engine, err := openDB(
			config.GetInstance().GetStringOrDefault(config.BaseDbXormType, DBTypePostgres),
			config.GetInstance().GetString(config.BaseDbXormHost),
			config.GetInstance().GetString(config.BaseDbXormPort),
			config.GetInstance().GetString(config.BaseDbXormUsername),
			config.GetInstance().GetString(config.BaseDbXormName),
			config.GetInstance().GetString(config.BaseDbXormPassword),
			config.GetInstance().GetBool(config.BaseDbXormShowsql),
		)
		if err != nil {
			panic(err)
		}
		instance = NewFactory(engine)
	})
	return instance
}

// NewFactory 使用已有 engine 创建 factory
func NewFactory(engine *xorm.Engine) *Factory {
	return &Factory{engine: engine}
}

var _ factory.Factory = (*Factory)(nil)

// NewSqliteFactory 打开 sqlite 数据库并同步表结构，用于单机部署和测试
func NewSqliteFactory(path string) (*Factory, error) {
	engine, err := openDB(DBTypeSqlite, "", "", "", path, "", false)
	if err != nil {
		return nil, err
	}
	f := NewFactory(engine)
	if err = f.Sync(); err != nil {
		return nil, err
	}
	return f, nil
}

// openDB 设置 xorm 的连接参数，sqlite3 时 name 为数据库文件路径
func openDB(dbType string, host string, port string, userName string, name string, password string, showSql bool) (*xorm.Engine, error) {
	var dsn string
	switch dbType {
	case DBTypeSqlite:
		dsn = name
	default:
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Shanghai",
			host,
			userName,
			password,
			name,
			port)
	}

	engine, err := xorm.NewEngine(dbType, dsn)
	if err != nil {
		logrus.Errorf("Database connection failed err: %v. Database name: %s", err, name)
		return nil, err
	}
	if dbType == DBTypeSqlite {
		// sqlite 单写者
		engine.SetMaxOpenConns(1)
	}
	engine.ShowSQL(showSql)
	return engine, nil
}

// Sync 同步表结构
func (f *Factory) Sync() error {
	if err := f.engine.Sync2(entity.Tables()...); err != nil {
		return fmt.Errorf("failed to sync tables: %w", err)
	}
	return nil
}

// DB 底层连接池，用于导出连接池指标
func (f *Factory) DB() *sql.DB {
	return f.engine.DB().DB
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	return f.engine.Close()
}

// NewSession 创建一个会话
func (f *Factory) NewSession(ctx context.Context) interfaces.Session {
	return &Session{Session: f.engine.NewSession().Context(ctx)}
}

func toSession(session interfaces.Session) (*Session, error) {
	if s, ok := session.(*Session); ok {
		return s, nil
	}
	return nil, fmt.Errorf("xorm session 结构解析失败")
}

// NewMessageRecordRepository 创建消息记录仓库
func (f *Factory) NewMessageRecordRepository(session interfaces.Session) (repository.MessageRecordRepository, error) {
	s, err := toSession(session)
	if err != nil {
		return nil, err
	}
	return NewMessageRecordRepository(s), nil
}

// NewUserMessageStateRepository 创建用户消息计数仓库
func (f *Factory) NewUserMessageStateRepository(session interfaces.Session) (repository.UserMessageStateRepository, error) {
	s, err := toSession(session)
	if err != nil {
		return nil, err
	}
	return NewUserMessageStateRepository(s), nil
}

// NewUserImpressionRepository 创建用户印象仓库
func (f *Factory) NewUserImpressionRepository(session interfaces.Session) (repository.UserImpressionRepository, error) {
	s, err := toSession(session)
	if err != nil {
		return nil, err
	}
	return NewUserImpressionRepository(s), nil
}

// NewUserAffectionRepository 创建用户好感度仓库
func (f *Factory) NewUserAffectionRepository(session interfaces.Session) (repository.UserAffectionRepository, error) {
	s, err := toSession(session)
	if err != nil {
		return nil, err
	}
	return NewUserAffectionRepository(s), nil
}
