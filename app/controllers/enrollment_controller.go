package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/internal/pkg/enrollment"
	"github.com/avishkar-academy/vault/internal/pkg/hcaptcha"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

type enrollmentRequest struct {
	enrollment.Input
	CaptchaToken string `json:"captcha_token"`
}

// EnrollmentController accepts class sign-ups, including from guests.
type EnrollmentController struct {
	enrollments *enrollment.Service
	captcha     *hcaptcha.Verifier
}

func NewEnrollmentController(svc *enrollment.Service, captcha *hcaptcha.Verifier) *EnrollmentController {
	return &EnrollmentController{enrollments: svc, captcha: captcha}
}

// HandleEnroll registers the student for a class.
func (ec *EnrollmentController) HandleEnroll(c *fiber.Ctx) error {
	var req enrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ip := ClientIP(c)
	if ec.captcha != nil && ec.captcha.Enabled() {
		ok, err := ec.captcha.Verify(c.UserContext(), req.CaptchaToken, ip)
		if err != nil {
			log.Warnf("[Enrollment] captcha verification failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":     "captcha_unavailable",
				"message":   "captcha could not be verified, please retry",
				"retryable": true,
			})
		}
		if !ok {
			return badRequest(c, "captcha verification failed")
		}
	}

	in := req.Input
	in.UserID = usercontext.GetUserID(c)
	in.IPAddress = ip
	record, err := ec.enrollments.Enroll(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}
