package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/content"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.NotFound("item %s", "x"), fiber.StatusNotFound},
		{apperrors.New(apperrors.KindInactive, "retired"), fiber.StatusNotFound},
		{apperrors.ErrAuthenticationRequired, fiber.StatusUnauthorized},
		{apperrors.New(apperrors.KindPriceMismatch, "amount"), fiber.StatusUnprocessableEntity},
		{fmt.Errorf("enroll: %w", apperrors.ErrAlreadyEnrolled), fiber.StatusConflict},
		{apperrors.Gateway(errors.New("timeout"), "create order"), fiber.StatusBadGateway},
		{apperrors.Integrity("bad signature"), fiber.StatusBadRequest},
		{apperrors.Validation("bad input"), fiber.StatusBadRequest},
		{&content.Denial{Item: &models.CatalogItem{ID: "i1"}, Decision: &entitlements.Decision{}}, fiber.StatusForbidden},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func errorBody(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return respondError(c, err) })
	resp, e := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, e)
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	status, body := errorBody(t, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, "internal error", body["message"])
}

func TestRespondErrorCarriesFieldsAndRetryable(t *testing.T) {
	status, body := errorBody(t, apperrors.Validation("invalid input", apperrors.FieldError{Field: "email", Message: "must be an email"}))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "invalid input", body["message"])
	assert.Len(t, body["fields"], 1)
	assert.NotContains(t, body, "retryable")

	status, body = errorBody(t, apperrors.Gateway(errors.New("upstream 503"), "gateway unavailable"))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "gateway unavailable", body["message"])
	assert.Equal(t, true, body["retryable"])
}
