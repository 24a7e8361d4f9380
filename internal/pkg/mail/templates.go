package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/money"
)

func enrollmentBody(rec *models.EnrollmentRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		when := "to be announced"
		if rec.ClassDate != nil {
			when = rec.ClassDate.Format("Monday, 02 Jan 2006 15:04 MST")
		}
		paid := "No fee"
		if rec.PaymentStatus == models.EnrollmentPaymentCompleted {
			paid = money.Format(rec.AmountPaid, rec.Currency)
		}
		_, err := fmt.Fprintf(w, `<p>Hi %s,</p>
<p>You are enrolled in <strong>%s</strong>.</p>
<ul><li>Date: %s</li><li>Paid: %s</li></ul>
<p>Keep this email for your records.</p>`,
			templ.EscapeString(rec.StudentName),
			templ.EscapeString(rec.ClassTitle),
			templ.EscapeString(when),
			templ.EscapeString(paid))
		return err
	})
}

// EnrollmentConfirmation builds the confirmation email for rec.
func EnrollmentConfirmation(rec *models.EnrollmentRecord) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := enrollmentBody(rec).Render(context.Background(), &buf); err != nil {
		return "", "", err
	}
	subject = "Enrollment confirmed: " + strings.TrimSpace(rec.ClassTitle)
	return subject, buf.String(), nil
}
