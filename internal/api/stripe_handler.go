package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"parkease/internal/service"
)

type StripeWebhookHandler struct {
	StripeSecret   string
	bookingService *service.BookingService
	gateway        *service.StripeGateway
}

func NewStripeWebhookHandler(stripeSecret string, bookingService *service.BookingService, gateway *service.StripeGateway) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret:   stripeSecret,
		bookingService: bookingService,
		gateway:        gateway,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Bookings are committed when the session opens, so completion
		// only confirms the payment landed.
		log.Printf("Payment settled for booking %s (session %s)", sess.ClientReferenceID, sess.ID)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			break
		}
		sessionID, err := h.gateway.SessionIDByPaymentIntent(charge.PaymentIntent.ID)
		if err != nil {
			log.Printf("No session found for PaymentIntent %s: %v", charge.PaymentIntent.ID, err)
			break
		}
		bookingID, ok := h.bookingService.BookingIDByPaymentRef(sessionID)
		if !ok {
			log.Printf("No booking found for session %s", sessionID)
			break
		}
		if !h.bookingService.CompleteRefundByID(r.Context(), bookingID) {
			log.Printf("Refund completion for booking %s did not apply", bookingID)
		}

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
