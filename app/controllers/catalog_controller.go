package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/money"
)

// CatalogItemResponse is the public view of a catalog item. The content
// locator is never part of it.
type CatalogItemResponse struct {
	ID            string                 `json:"id"`
	Kind          models.CatalogItemKind `json:"kind"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	PriceMinor    int64                  `json:"price_minor"`
	Currency      string                 `json:"currency"`
	PriceLabel    string                 `json:"price_label"`
	IsPremium     bool                   `json:"is_premium"`
	DurationLabel string                 `json:"duration_label,omitempty"`
	ClassDate     *time.Time             `json:"class_date,omitempty"`
}

func newCatalogItemResponse(item *models.CatalogItem) CatalogItemResponse {
	resp := CatalogItemResponse{
		ID:          item.ID,
		Kind:        item.Kind,
		Title:       item.Title,
		Description: item.Description,
		PriceMinor:  item.PriceMinor,
		Currency:    item.Currency,
		PriceLabel:  money.Format(item.PriceMinor, item.Currency),
		IsPremium:   item.IsPremium,
		ClassDate:   item.ClassDate,
	}
	if item.IsPremium {
		resp.DurationLabel = entitlements.PolicyFor(item).Label()
	}
	if item.IsFree() {
		resp.PriceLabel = "Free"
	}
	return resp
}

// CatalogController serves the public catalog.
type CatalogController struct {
	catalog catalog.Reader
}

func NewCatalogController(reader catalog.Reader) *CatalogController {
	return &CatalogController{catalog: reader}
}

// HandleList returns active items, optionally filtered by ?kind=.
func (cc *CatalogController) HandleList(c *fiber.Ctx) error {
	kind := models.CatalogItemKind(c.Query("kind"))
	switch kind {
	case "", models.CatalogKindMaterial, models.CatalogKindClass:
	default:
		return badRequest(c, "kind must be material or class")
	}

	items, err := cc.catalog.ListActive(c.UserContext(), kind)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]CatalogItemResponse, 0, len(items))
	for i := range items {
		out = append(out, newCatalogItemResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"items": out})
}

// HandleGet returns one item that is on sale.
func (cc *CatalogController) HandleGet(c *fiber.Ctx) error {
	item, err := cc.catalog.GetPurchasable(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newCatalogItemResponse(item))
}
