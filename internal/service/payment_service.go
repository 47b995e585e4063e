package service

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
)

// PaymentGateway settles booking charges and refunds. Charge returns the
// gateway reference the refund later runs against, plus an optional
// redirect URL when the gateway needs one.
type PaymentGateway interface {
	Charge(bookingCode string, amount int, description string) (ref, url string, err error)
	Refund(ref string, amount int) error
}

type StripeGateway struct {
	successURL string
	cancelURL  string
}

func NewStripeGateway(successURL, cancelURL string) *StripeGateway {
	return &StripeGateway{successURL: successURL, cancelURL: cancelURL}
}

// Charge opens a Stripe Checkout session for the booking amount.
// Amounts are rupees; Stripe wants paise.
func (g *StripeGateway) Charge(bookingCode string, amount int, description string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("inr"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					UnitAmount: stripe.Int64(int64(amount) * 100),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(bookingCode),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
	}
	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("creating checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

func (g *StripeGateway) Refund(ref string, amount int) error {
	sess, err := session.Get(ref, nil)
	if err != nil {
		return fmt.Errorf("loading checkout session %s: %w", ref, err)
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("no payment intent found for session %s", ref)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		Amount:        stripe.Int64(int64(amount) * 100),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("creating refund for session %s: %w", ref, err)
	}
	return nil
}

// SessionIDByPaymentIntent finds the checkout session a payment intent
// settled. Refund webhooks only carry the intent, not the session.
func (g *StripeGateway) SessionIDByPaymentIntent(intentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{PaymentIntent: stripe.String(intentID)}
	it := session.List(params)
	for it.Next() {
		return it.CheckoutSession().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("listing sessions for payment intent %s: %w", intentID, err)
	}
	return "", fmt.Errorf("no session found for payment intent %s", intentID)
}

// SimulatedGateway approves every charge and refund immediately. It
// stands in for the real gateway in local mode; the refund-completed
// event is then scheduled by the booking service.
type SimulatedGateway struct{}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) Charge(bookingCode string, amount int, description string) (string, string, error) {
	return fmt.Sprintf("SIM-%s-%d", bookingCode, time.Now().UnixMilli()), "", nil
}

func (g *SimulatedGateway) Refund(ref string, amount int) error {
	return nil
}
