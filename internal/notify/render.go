package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
)

const dateTBA = "To be announced"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatEventDate renders an event date for email bodies.
func FormatEventDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Monday, January 2, 2006")
		}
	}
	return dateTBA
}

// ContentID is the inline attachment id of the n-th ticket's QR image.
func ContentID(n int) string {
	return fmt.Sprintf("qr_code_%d", n)
}

func ConfirmationSubject(c Confirmation) string {
	return fmt.Sprintf("Your Tickets for %s - Order %s", c.EventTitle, c.OrderID)
}

func ReminderSubject(r Reminder) string {
	return fmt.Sprintf("Payment Reminder: %s - Order %s", r.EventTitle, r.OrderID)
}

type ticketView struct {
	Number int
	Code   string
	Type   string
	Image  template.URL
}

type confirmationView struct {
	CustomerName     string
	EventTitle       string
	EventDate        string
	EventVenue       string
	EventDescription string
	PayOnDay         bool
	Amount           string
	Tickets          []ticketView
	OrderID          string
}

// RenderConfirmation renders the ticket confirmation email. The output is a
// pure function of c.
func RenderConfirmation(c Confirmation) (string, error) {
	view := confirmationView{
		CustomerName:     c.CustomerName,
		EventTitle:       c.EventTitle,
		EventDate:        FormatEventDate(c.EventDate),
		EventVenue:       c.EventVenue,
		EventDescription: c.EventDescription,
		PayOnDay:         c.PaymentMethod == domain.PaymentMethodPayOnDay,
		Amount:           c.TotalAmount.StringFixed(2),
		OrderID:          c.OrderID,
		Tickets:          make([]ticketView, 0, len(c.Tickets)),
	}
	for i, t := range c.Tickets {
		view.Tickets = append(view.Tickets, ticketView{
			Number: i + 1,
			Code:   t.Code,
			Type:   t.Type,
			Image:  template.URL("cid:" + ContentID(i)),
		})
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

type reminderView struct {
	EventTitle string
	EventDate  string
	Amount     string
	OrderID    string
}

func RenderReminder(r Reminder) (string, error) {
	var buf bytes.Buffer
	err := reminderTmpl.Execute(&buf, reminderView{
		EventTitle: r.EventTitle,
		EventDate:  FormatEventDate(r.EventDate),
		Amount:     r.Amount.StringFixed(2),
		OrderID:    r.OrderID,
	})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9fafb; }
.header { background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0; }
.content { background-color: white; padding: 30px; border-radius: 0 0 8px 8px; }
.event-info { background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0; }
.ticket-card { border: 1px solid #e5e7eb; border-radius: 8px; padding: 20px; margin: 15px 0; }
.ticket-code { font-family: 'Courier New', monospace; font-size: 16px; font-weight: bold; color: #667eea; }
.qr-code img { max-width: 200px; height: auto; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; font-size: 12px; color: #6b7280; text-align: center; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Your Event Tickets</h1><p>Order Confirmed</p></div>
<div class="content">
<p>Hello{{if .CustomerName}} {{.CustomerName}}{{end}}!</p>
<p>Thank you for your purchase. Your tickets for <strong>{{.EventTitle}}</strong> are ready!</p>
<div class="event-info">
<div><strong>Event:</strong> {{.EventTitle}}</div>
<div><strong>Date:</strong> {{.EventDate}}</div>
{{- if .EventVenue}}
<div><strong>Venue:</strong> {{.EventVenue}}</div>
{{- end}}
{{- if .EventDescription}}
<div><strong>Description:</strong> {{.EventDescription}}</div>
{{- end}}
</div>
{{if .PayOnDay -}}
<div class="payment-reminder">
<p><strong>Payment Reminder</strong></p>
<p>Please complete your payment of ${{.Amount}} at the venue on event day.</p>
</div>
{{- else -}}
<div class="payment-confirmed">
<p><strong>Payment Confirmed</strong></p>
<p>You have paid ${{.Amount}} for this event.</p>
</div>
{{- end}}
<div class="tickets">
<h2>Your Tickets ({{len .Tickets}})</h2>
{{- range .Tickets}}
<div class="ticket-card">
<h3>Ticket {{.Number}} <span>{{.Type}}</span></h3>
<div class="ticket-code">{{.Code}}</div>
<div class="qr-code"><p>Scan at entry</p><img src="{{.Image}}" alt="QR Code for Ticket {{.Number}}"></div>
</div>
{{- end}}
</div>
<div class="next-steps">
<h3>What's Next?</h3>
<ul>
<li>Save these tickets or screenshot them for your records</li>
<li>Bring your ticket (screenshot or printed) to the event</li>
<li>Arrive 15 minutes early for smooth check-in</li>
</ul>
</div>
<div class="footer">
<p>Order ID: {{.OrderID}}</p>
<p>If you have any questions, please contact our support team.</p>
</div>
</div>
</div>
</body>
</html>
`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body>
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background-color: #f59e0b; color: white; padding: 20px; text-align: center; border-radius: 8px;"><h1>Payment Reminder</h1></div>
<div style="background-color: #fff; padding: 20px; text-align: center;">
<p>This is a reminder to complete your payment for <strong>{{.EventTitle}}</strong></p>
<p style="font-size: 24px; color: #f59e0b;"><strong>${{.Amount}}</strong></p>
<p>Event Date: <strong>{{.EventDate}}</strong></p>
<p style="color: #666; font-size: 14px;">Please bring payment to the event venue on the day of the event. Your order ID is: <code>{{.OrderID}}</code></p>
</div>
</div>
</body>
</html>
`))
