package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkease/internal/entities"
)

// SMSSender delivers a text message. NotifyService implements it with
// Twilio; tests substitute a capture.
type SMSSender interface {
	SendSMS(toNumber, body string) error
}

type NotifyService struct{}

func NewNotifyService() *NotifyService {
	return &NotifyService{}
}

func (s *NotifyService) SendSMS(toNumber, body string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")

	if accountSid == "" || authToken == "" || fromNumber == "" {
		log.Println("WARNING: Twilio credentials not configured. SMS will not be sent.")
		return fmt.Errorf("twilio credentials not fully configured")
	}

	if !strings.HasPrefix(toNumber, "+") {
		toNumber = "+91" + toNumber
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSid,
		Password:   authToken,
		AccountSid: accountSid,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Error sending SMS to %s via Twilio: %v", toNumber, err)
		return fmt.Errorf("sending SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("SMS sent to %s. Message SID: %s", toNumber, *resp.Sid)
	}
	return nil
}

// SendBookingSMS notifies the user about a booking status change.
// Best effort: failures are logged, never surfaced to the booking flow.
func (s *NotifyService) SendBookingSMS(toNumber, bookingID, lotName, status string) {
	body := fmt.Sprintf("ParkEase: booking %s at %s is %s. Details in the app.", bookingID, lotName, status)
	if err := s.SendSMS(toNumber, body); err != nil {
		log.Printf("Booking %s: could not send %s SMS to %s: %v", bookingID, status, toNumber, err)
	}
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`
<h2>ParkEase parking receipt</h2>
<p>Booking <strong>{{.BookingID}}</strong> ({{.Status}})</p>
<table>
  <tr><td>Lot</td><td>{{.LotName}}, {{.LotAddress}}</td></tr>
  {{if .SlotLabel}}<tr><td>Slot</td><td>{{.SlotLabel}}</td></tr>{{end}}
  <tr><td>Vehicle</td><td>{{.VehicleNumber}}</td></tr>
  <tr><td>From</td><td>{{.StartTime.Format "02 Jan 2006 15:04"}}</td></tr>
  <tr><td>To</td><td>{{.EndTime.Format "02 Jan 2006 15:04"}}</td></tr>
  <tr><td>Amount</td><td>₹{{.Amount}}</td></tr>
  {{if gt .OverstayAmount 0}}<tr><td>Overstay</td><td>₹{{.OverstayAmount}}</td></tr>{{end}}
  <tr><td>Total paid</td><td>₹{{.TotalPaid}}</td></tr>
  {{if .RefundStatus}}<tr><td>Refund</td><td>₹{{.RefundAmount}} ({{.RefundStatus}})</td></tr>{{end}}
</table>
<p>Thank you for choosing ParkEase.</p>
`))

// SendReceiptEmail mails a receipt via SendGrid. The send happens on a
// goroutine; failures are logged.
func (s *NotifyService) SendReceiptEmail(toEmail string, receipt entities.Receipt) error {
	sendgridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridAPIKey == "" {
		log.Println("WARNING: SENDGRID_API_KEY not configured. Receipt email will not be sent.")
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		log.Println("WARNING: SENDGRID_FROM_EMAIL not configured. Receipt email will not be sent.")
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "ParkEase"
	}

	var htmlBody bytes.Buffer
	if err := receiptTmpl.Execute(&htmlBody, receipt); err != nil {
		return fmt.Errorf("rendering receipt email: %w", err)
	}
	subject := fmt.Sprintf("Your ParkEase receipt for booking %s", receipt.BookingID)
	plainBody := fmt.Sprintf(
		"ParkEase receipt for booking %s\nLot: %s, %s\nVehicle: %s\nTotal paid: ₹%d\n",
		receipt.BookingID, receipt.LotName, receipt.LotAddress, receipt.VehicleNumber, receipt.TotalPaid,
	)

	go func() {
		from := mail.NewEmail(fromName, fromEmail)
		to := mail.NewEmail("", toEmail)
		message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody.String())
		client := sendgrid.NewSendClient(sendgridAPIKey)
		response, err := client.Send(message)
		if err != nil {
			log.Printf("Error sending receipt email to %s: %v", toEmail, err)
			return
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			log.Printf("SendGrid returned status %d sending receipt to %s: %s",
				response.StatusCode, toEmail, response.Body)
			return
		}
		log.Printf("Receipt for booking %s emailed to %s", receipt.BookingID, toEmail)
	}()
	return nil
}
