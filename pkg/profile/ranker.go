package profile

import (
	"ai_impression/entity"
	"math"
	"sort"
)

// ContextCandidate 上下文候选，候选列表按时间倒序给出
type ContextCandidate struct {
	Record *entity.ImpressionMessageRecord
	Vector []float64
}

// Ranker 上下文排序策略
type Ranker interface {
	// Rank 返回不超过 limit 条记录，最相关的在前
	Rank(query []float64, candidates []ContextCandidate, limit int) []*entity.ImpressionMessageRecord
}

// HybridRanker 相似度与时间新近度加权
// score = w * (cos+1)/2 + (1-w) * (1 - rank/n)，无查询向量时只看新近度
type HybridRanker struct {
	SimilarityWeight float64
}

func NewHybridRanker(similarityWeight float64) *HybridRanker {
	return &HybridRanker{SimilarityWeight: clamp(similarityWeight, 0, 1)}
}

func (h *HybridRanker) Rank(query []float64, candidates []ContextCandidate, limit int) []*entity.ImpressionMessageRecord {
	n := len(candidates)
	if limit <= 0 || n == 0 {
		return []*entity.ImpressionMessageRecord{}
	}

	w := h.SimilarityWeight
	if len(query) == 0 {
		w = 0
	}

	type scored struct {
		record *entity.ImpressionMessageRecord
		score  float64
	}
	items := make([]scored, n)
	for i, c := range candidates {
		recency := 1 - float64(i)/float64(n)
		similarity := 0.5
		if w > 0 {
			if cos, ok := Cosine(query, c.Vector); ok {
				similarity = (cos + 1) / 2
			}
		}
		items[i] = scored{record: c.Record, score: w*similarity + (1-w)*recency}
	}

	// 稳定排序，分数相同按原有的时间倒序
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].score > items[b].score
	})

	if limit > n {
		limit = n
	}
	result := make([]*entity.ImpressionMessageRecord, 0, limit)
	for _, item := range items[:limit] {
		result = append(result, item.record)
	}
	return result
}

// Cosine 余弦相似度，维度不一致或零向量时返回 false
func Cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
