package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/catalog"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/response"
)

type PackageHandler struct {
	catalog *catalog.Catalog
}

func NewPackageHandler(plans *catalog.Catalog) *PackageHandler {
	return &PackageHandler{catalog: plans}
}

// List 套餐列表（公开）
// GET /api/v1/packages
func (h *PackageHandler) List(c *gin.Context) {
	plans := h.catalog.All()

	items := make([]dto.PackageItem, 0, len(plans))
	for _, plan := range plans {
		items = append(items, dto.PackageItem{
			ID:                  plan.ID,
			Name:                plan.Name,
			MonthlyPrice:        plan.MonthlyPrice,
			BillingInterval:     plan.BillingInterval,
			MaxSessions:         plan.MaxSessions,
			Features:            plan.Features,
			SiblingDiscountTier: plan.SiblingDiscountTier,
		})
	}

	response.Success(c, items)
}
