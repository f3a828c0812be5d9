package impression

import (
	"ai_impression/config"
	"ai_impression/pkg/locker"
	"ai_impression/pkg/metrics"
	"ai_impression/pkg/profile"
	"ai_impression/pkg/prompt"
	"ai_impression/pkg/tools"
	"ai_impression/repository"
	"ai_impression/repository/factory"
	"ai_impression/repository/interfaces"
	"context"
	"fmt"
	"time"
)

// Embedder 向量服务
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Service 印象与好感度增量更新
type Service struct {
	repositoryFactory factory.Factory
	embedder          Embedder
	completer         prompt.Completer
	locker            locker.Locker
	metrics           *metrics.Metrics
	loadOptions       func() (*config.PipelineOptions, error)
	newRanker         func(opts *config.PipelineOptions) profile.Ranker
	now               func() time.Time
}

type Option func(*Service)

// WithOptionsLoader 替换配置来源，默认每次执行从全局配置读取
func WithOptionsLoader(loader func() (*config.PipelineOptions, error)) Option {
	return func(s *Service) {
		s.loadOptions = loader
	}
}

// WithRanker 替换上下文排序策略
func WithRanker(newRanker func(opts *config.PipelineOptions) profile.Ranker) Option {
	return func(s *Service) {
		s.newRanker = newRanker
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repositoryFactory factory.Factory, embedder Embedder, completer prompt.Completer, userLocker locker.Locker, opts ...Option) *Service {
	s := &Service{
		repositoryFactory: repositoryFactory,
		embedder:          embedder,
		completer:         completer,
		locker:            userLocker,
		loadOptions:       config.LoadPipelineOptions,
		newRanker: func(opts *config.PipelineOptions) profile.Ranker {
			return profile.NewHybridRanker(opts.SimilarityWeight)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = locker.NewLocalLocker()
	}
	return s
}

// repositories 同一个 session 下的四个 repo
type repositories struct {
	records     repository.MessageRecordRepository
	states      repository.UserMessageStateRepository
	impressions repository.UserImpressionRepository
	affections  repository.UserAffectionRepository
}

func (s *Service) newRepositories(session interfaces.Session) (*repositories, error) {
	records, err := s.repositoryFactory.NewMessageRecordRepository(session)
	if err != nil {
		return nil, err
	}
	states, err := s.repositoryFactory.NewUserMessageStateRepository(session)
	if err != nil {
		return nil, err
	}
	impressions, err := s.repositoryFactory.NewUserImpressionRepository(session)
	if err != nil {
		return nil, err
	}
	affections, err := s.repositoryFactory.NewUserAffectionRepository(session)
	if err != nil {
		return nil, err
	}
	return &repositories{
		records:     records,
		states:      states,
		impressions: impressions,
		affections:  affections,
	}, nil
}

// inTx 在事务中执行 fn，fn 返回错误时回滚
func (s *Service) inTx(ctx context.Context, fn func(repos *repositories) error) (err error) {
	session := s.repositoryFactory.NewSession(ctx)
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err = session.Begin(); err != nil {
		return err
	}
	repos, err := s.newRepositories(session)
	if err != nil {
		_ = session.Rollback()
		return err
	}
	if err = fn(repos); err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return session.Commit()
}

// withRepositories 非事务读写
func (s *Service) withRepositories(ctx context.Context, fn func(repos *repositories) error) error {
	session := s.repositoryFactory.NewSession(ctx)
	defer tools.CloseWithLog(session.Close, "session")

	repos, err := s.newRepositories(session)
	if err != nil {
		return err
	}
	return fn(repos)
}
