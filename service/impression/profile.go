package impression

import (
	"ai_impression/constant"
	"ai_impression/entity"
	"ai_impression/model"
	"ai_impression/pkg/profile"
	"context"
	"fmt"
	"strings"
)

// GetProfile 查询用户印象、好感度和消息计数
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.UserProfileView, *model.Error) {
	userID = NormalizeUserID(userID)
	if userID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}

	var view *model.UserProfileView
	err := s.withRepositories(ctx, func(repos *repositories) error {
		var err error
		view, err = loadProfile(repos, userID)
		return err
	})
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}
	if view.State == nil && view.Impression == nil && view.Affection == nil {
		return nil, model.NewError(model.ErrorNotFound, nil)
	}
	return view, nil
}

// userOrderFields 用户列表允许的排序字段
var userOrderFields = map[string]bool{
	entity.UserMessageStateFieldUserID:                true,
	entity.UserMessageStateFieldTotalMessages:         true,
	entity.UserMessageStateFieldImpressionUpdateCount: true,
	entity.UserMessageStateFieldAffectionUpdateCount:  true,
	entity.UserMessageStateFieldUpdatedAt:             true,
}

// ListProfiles 分页列出有消息记录的用户
func (s *Service) ListProfiles(ctx context.Context, condition *model.ListUserCondition) ([]*model.UserProfileView, *model.Error) {
	if condition == nil {
		condition = &model.ListUserCondition{}
	}
	if condition.Pager == nil {
		condition.Pager = &model.Pager{Limit: constant.DefaultPageLimit}
	}
	if condition.Limit <= 0 {
		condition.Limit = constant.DefaultPageLimit
	}
	if condition.Limit > constant.MaxPageLimit {
		condition.Limit = constant.MaxPageLimit
	}
	if condition.Order != nil && condition.OrderBy != constant.EmptyString && !userOrderFields[condition.OrderBy] {
		return nil, model.NewErrorWithMessage(model.ErrorParams, fmt.Sprintf("unsupported order_by %q", condition.OrderBy))
	}

	views := make([]*model.UserProfileView, 0)
	err := s.withRepositories(ctx, func(repos *repositories) error {
		states, err := repos.states.List(condition)
		if err != nil {
			return err
		}
		for _, state := range states {
			view, err := loadProfile(repos, state.UserID)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}
	return views, nil
}

func loadProfile(repos *repositories, userID string) (*model.UserProfileView, error) {
	state, err := repos.states.Get(userID)
	if err != nil {
		return nil, err
	}
	impression, err := repos.impressions.Get(userID)
	if err != nil {
		return nil, err
	}
	affection, err := repos.affections.Get(userID)
	if err != nil {
		return nil, err
	}
	return &model.UserProfileView{
		UserID:     userID,
		Impression: impression,
		Affection:  affection,
		State:      state,
	}, nil
}

// SetAffection 管理员手动设置好感度，等级按分数重新计算
func (s *Service) SetAffection(ctx context.Context, userID string, req *model.SetAffectionRequest) (*entity.UserAffection, *model.Error) {
	userID = NormalizeUserID(userID)
	if userID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}
	if req == nil || req.Score == nil {
		return nil, model.NewError(model.ErrorParams, fmt.Errorf("score is required"))
	}
	score := *req.Score
	if score < constant.AffectionScoreMin || score > constant.AffectionScoreMax {
		return nil, model.NewErrorWithMessage(model.ErrorParams,
			fmt.Sprintf("score must be within [%.0f, %.0f]", constant.AffectionScoreMin, constant.AffectionScoreMax))
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == constant.EmptyString {
		reason = constant.AffectionChangeReasonManual
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, model.NewError(model.ErrorCanceled, err)
	}
	defer unlock()

	affection := &entity.UserAffection{
		UserID:         userID,
		AffectionScore: score,
		AffectionLevel: profile.AffectionLevelOf(score).String(),
		ChangeReason:   reason,
		LastUpdated:    s.now(),
	}
	err = s.withRepositories(ctx, func(repos *repositories) error {
		return repos.affections.Upsert(&model.UpsertAffectionCondition{
			UserID:         affection.UserID,
			AffectionScore: affection.AffectionScore,
			AffectionLevel: affection.AffectionLevel,
			ChangeReason:   affection.ChangeReason,
			LastUpdated:    affection.LastUpdated,
		})
	})
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}
	return affection, nil
}
