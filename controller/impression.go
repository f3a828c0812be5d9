package controller

import (
	"ai_impression/model"
	"ai_impression/service/factory"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetImpression 查询用户画像
// @Summary 查询用户印象和好感度
// @Tags Impression
// @Produce json
// @Param user_id path string true "用户ID"
// @Success 200 {object} model.UserProfileView
// @Router /api/v1/impressions/{user_id} [get]
func GetImpression(ctx *gin.Context) {
	view, err := factory.GetServiceFactory().NewImpressionService().GetProfile(ctx.Request.Context(), ctx.Param("user_id"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, model.Success(view))
}

// ListImpressions 分页列出用户画像
// @Summary 用户画像列表
// @Tags Impression
// @Produce json
// @Param limit query int false "每页条数"
// @Param offset query int false "偏移"
// @Success 200 {array} model.UserProfileView
// @Router /api/v1/impressions [get]
func ListImpressions(ctx *gin.Context) {
	var pager model.Pager
	if err := ctx.ShouldBindQuery(&pager); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}
	var order model.Order
	if err := ctx.ShouldBindQuery(&order); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}

	views, err := factory.GetServiceFactory().NewImpressionService().ListProfiles(ctx.Request.Context(), &model.ListUserCondition{
		Pager: &pager,
		Order: &order,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, model.Success(views))
}

// SearchImpressions 按语义检索用户印象
// @Summary 印象语义检索
// @Tags Impression
// @Produce json
// @Param q query string true "查询文本"
// @Param limit query int false "返回条数"
// @Success 200 {array} model.ImpressionSearchHit
// @Router /api/v1/impressions/search [get]
func SearchImpressions(ctx *gin.Context) {
	var req model.SearchImpressionsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}

	hits, err := factory.GetServiceFactory().NewImpressionService().SearchImpressions(ctx.Request.Context(), &req)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, model.Success(hits))
}

// SetAffection 手动设置好感度
// @Summary 设置用户好感度
// @Tags Impression
// @Accept json
// @Produce json
// @Param user_id path string true "用户ID"
// @Param request body model.SetAffectionRequest true "好感度"
// @Success 200 {object} entity.UserAffection
// @Router /api/v1/impressions/{user_id}/affection [put]
func SetAffection(ctx *gin.Context) {
	var req model.SetAffectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}

	affection, err := factory.GetServiceFactory().NewImpressionService().SetAffection(ctx.Request.Context(), ctx.Param("user_id"), &req)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, model.Success(affection))
}
