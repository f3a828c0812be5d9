package factory

import (
	"ai_impression/repository"
	"ai_impression/repository/interfaces"
	"context"
)

type Factory interface {
	NewSession(ctx context.Context) interfaces.Session
	NewMessageRecordRepository(session interfaces.Session) (repository.MessageRecordRepository, error)
	NewUserMessageStateRepository(session interfaces.Session) (repository.UserMessageStateRepository, error)
	NewUserImpressionRepository(session interfaces.Session) (repository.UserImpressionRepository, error)
	NewUserAffectionRepository(session interfaces.Session) (repository.UserAffectionRepository, error)
}
