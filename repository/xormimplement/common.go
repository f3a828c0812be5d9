package xormimplement

import (
	"ai_impression/model"
	"strings"

	"xorm.io/xorm"
)

// 分页查询
type PaginationOrderCondition interface {
	GetPager() *model.Pager
	GetOrder() *model.Order
}

type pagerOrderCondition struct {
	DefaultOrderField   string
	DefaultOrderAsc     bool
	SecondaryOrderField string
}

func WithDefaultOrderField(field string) func(*pagerOrderCondition) {
	return func(condition *pagerOrderCondition) {
		condition.DefaultOrderField = field
	}
}

func WithDefaultOrderAsc(asc bool) func(*pagerOrderCondition) {
	return func(condition *pagerOrderCondition) {
		condition.DefaultOrderAsc = asc
	}
}

// WithSecondaryOrderField 主排序字段相同时的次级排序，方向与主排序一致
func WithSecondaryOrderField(field string) func(*pagerOrderCondition) {
	return func(condition *pagerOrderCondition) {
		condition.SecondaryOrderField = field
	}
}

// nolint
func pagerOrder(session *xorm.Session, condition PaginationOrderCondition, arr ...func(*pagerOrderCondition)) {
	pagerOrderCon := &pagerOrderCondition{}
	for _, f := range arr {
		f(pagerOrderCon)
	}
	pagination := condition.GetPager()
	if pagination != nil {
		if pagination.Limit > 0 {
			session.Limit(pagination.Limit, pagination.Offset)
		}
	}
	order := condition.GetOrder()
	orderField := pagerOrderCon.DefaultOrderField
	orderAsc := pagerOrderCon.DefaultOrderAsc
	if order != nil && !strings.EqualFold(order.OrderBy, "") {
		orderField = order.OrderBy
		orderAsc = order.OrderAsc
	}
	direction := " desc"
	if orderAsc {
		direction = " asc"
	}
	if orderField != "" {
		session.OrderBy(orderField + direction)
	}
	if pagerOrderCon.SecondaryOrderField != "" && pagerOrderCon.SecondaryOrderField != orderField {
		session.OrderBy(pagerOrderCon.SecondaryOrderField + direction)
	}
}
