package controllers

import (
	"errors"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/constants"
	"github.com/avishkar-academy/vault/internal/pkg/content"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

// ContentController serves the protected viewer and its file redirect.
type ContentController struct {
	content *content.Service
	// purchaseURL is the page a denied visitor is sent to, followed by
	// the item id.
	purchaseURL string
	now         func() time.Time
}

func NewContentController(svc *content.Service, purchaseURL string, now func() time.Time) *ContentController {
	if now == nil {
		now = time.Now
	}
	if purchaseURL == "" {
		purchaseURL = constants.PurchaseRoute
	}
	return &ContentController{content: svc, purchaseURL: purchaseURL, now: now}
}

func render(c *fiber.Ctx, status int, component templ.Component) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("X-Frame-Options", "SAMEORIGIN")
	c.Set("Referrer-Policy", "no-referrer")
	handler := adaptor.HTTPHandler(templ.Handler(component, templ.WithStatus(status)))
	return handler(c)
}

// HandleView renders the viewer after the access check.
func (cc *ContentController) HandleView(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	view, err := cc.content.Open(c.UserContext(), uc.UserID, c.Params("itemId"))
	if err != nil {
		return cc.renderError(c, err)
	}

	data := content.ViewerData{
		Title:     view.Item.Title,
		Kind:      view.Kind,
		FileURL:   view.FileURL,
		Watermark: uc.Email,
	}
	if data.Watermark == "" {
		data.Watermark = uc.UserID
	}
	if view.Decision != nil && view.Decision.Entitlement != nil {
		data.Remaining = entitlements.RemainingLabel(view.Decision.Entitlement.ExpiresAt, cc.now())
	}
	return render(c, fiber.StatusOK, content.Viewer(data))
}

// HandleFile redirects to the short lived content URL for a valid link.
func (cc *ContentController) HandleFile(c *fiber.Ctx) error {
	target, err := cc.content.ResolveFile(c.UserContext(), c.Params("itemId"), c.Query("token"))
	if err != nil {
		return cc.renderError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("Referrer-Policy", "no-referrer")
	return c.Redirect(target, fiber.StatusFound)
}

func (cc *ContentController) renderError(c *fiber.Ctx, err error) error {
	var denial *content.Denial
	if errors.As(err, &denial) {
		message := "This material is part of a paid course. Purchase it to get access."
		if denial.Decision.Reason == entitlements.ReasonExpired {
			message = "Your access to this material has expired. Renew it to continue."
		}
		return render(c, fiber.StatusForbidden, content.AccessDenied(denial.Item.Title, message, cc.purchaseURL+url.PathEscape(denial.Item.ID)))
	}

	status := StatusFor(err)
	switch apperrors.KindOf(err) {
	case apperrors.KindAuthenticationRequired:
		return render(c, status, content.AccessDenied("Login required", "Please log in to open this material.", ""))
	case apperrors.KindForbidden:
		return render(c, status, content.AccessDenied("Link expired", "This link is no longer valid. Open the material again.", ""))
	case apperrors.KindNotFound, apperrors.KindInactive:
		return render(c, status, content.AccessDenied("Not found", "This material does not exist or is no longer available.", ""))
	}
	return respondError(c, err)
}
