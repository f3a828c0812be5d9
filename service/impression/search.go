package impression

import (
	"ai_impression/constant"
	"ai_impression/model"
	"ai_impression/pkg/clients/embedding"
	"ai_impression/pkg/profile"
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SearchImpressions 按查询文本的向量与印象向量的余弦相似度检索用户
// 向量缺失、无法解析或维度不一致的印象不参与排序
func (s *Service) SearchImpressions(ctx context.Context, req *model.SearchImpressionsRequest) ([]*model.ImpressionSearchHit, *model.Error) {
	if req == nil || strings.TrimSpace(req.Query) == constant.EmptyString {
		return nil, model.NewErrorWithMessage(model.ErrorParams, "q is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constant.DefaultPageLimit
	}
	if limit > constant.MaxPageLimit {
		limit = constant.MaxPageLimit
	}

	query, err := s.embedder.Embed(ctx, strings.TrimSpace(req.Query))
	if err != nil || len(query) == 0 {
		if err == nil {
			err = fmt.Errorf("empty query vector")
		}
		return nil, model.NewError(model.ErrorOracleUnavailable, fmt.Errorf("%w: search embedding: %w", ErrOracleUnavailable, err))
	}

	hits := make([]*model.ImpressionSearchHit, 0)
	err = s.withRepositories(ctx, func(repos *repositories) error {
		impressions, err := repos.impressions.ListWithVector()
		if err != nil {
			return err
		}
		for _, impression := range impressions {
			vector, err := embedding.StringToVector(impression.ImpressionVector)
			if err != nil {
				log.WithError(err).Warnf("skip impression of user %s: invalid vector", impression.UserID)
				continue
			}
			similarity, ok := profile.Cosine(query, vector)
			if !ok {
				continue
			}
			hits = append(hits, &model.ImpressionSearchHit{
				UserID:         impression.UserID,
				ImpressionText: impression.ImpressionText,
				Similarity:     similarity,
				LastUpdated:    impression.LastUpdated,
			})
		}
		return nil
	})
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
