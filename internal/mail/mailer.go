// Package mail sends booking receipt emails over SMTP. Delivery is
// best-effort everywhere in the system: a failed send is logged by the
// caller and never affects the booking it belongs to.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"tourbooking/internal/queue"
)

// Mailer holds SMTP connection settings. A zero Host disables sending.
type Mailer struct {
	Host string
	Port string
	User string
	Pass string
}

// New constructs a Mailer from SMTP settings.
func New(host, port, user, pass string) *Mailer {
	return &Mailer{Host: host, Port: port, User: user, Pass: pass}
}

// Enabled reports whether SMTP settings are configured.
func (m *Mailer) Enabled() bool { return m != nil && m.Host != "" }

// SendBookingReceipt emails a plain-text receipt for a confirmed
// booking to the traveller.
func (m *Mailer) SendBookingReceipt(ev queue.BookingConfirmedEvent) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp not configured")
	}
	subject := fmt.Sprintf("Booking Receipt - %s", ev.PackageTitle)
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "From: No Reply <%s>\r\n", m.User)
	fmt.Fprintf(&b, "To: %s\r\n\r\n", ev.Email)
	fmt.Fprintf(&b, "Thank you for your booking, %s!\r\n\r\n", ev.Name)
	fmt.Fprintf(&b, "Tour: %s\r\n", ev.PackageTitle)
	if ev.Country != "" || ev.City != "" {
		fmt.Fprintf(&b, "Destination: %s, %s\r\n", ev.Country, ev.City)
	}
	fmt.Fprintf(&b, "Dates: %s - %s\r\n", ev.StartDate, ev.EndDate)
	fmt.Fprintf(&b, "Adults: %d\r\n", ev.Adults)
	fmt.Fprintf(&b, "Total: %.2f\r\n", ev.TotalPrice)
	fmt.Fprintf(&b, "Reference: %s\r\n\r\n", ev.Reference)
	b.WriteString("This is an automated message; please do not reply.\r\n")

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.User, []string{ev.Email}, []byte(b.String()))
}
