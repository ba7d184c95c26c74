package payments

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Charger creates a payment intent for a completed booking. Implementations
// must be safe to call from request handlers; failures are reported, logged
// by the caller, and never block the booking state change.
type Charger interface {
	CreateIntent(bookingID, amountCents int64) (intentID string, err error)
	Enabled() bool
}

type StripeCharger struct {
	api      *client.API
	currency string
	enabled  bool
}

func NewStripeCharger(secretKey, currency string) *StripeCharger {
	c := &StripeCharger{
		currency: currency,
		enabled:  secretKey != "",
	}
	if c.enabled {
		c.api = &client.API{}
		c.api.Init(secretKey, nil)
	}
	return c
}

func (c *StripeCharger) Enabled() bool {
	return c.enabled
}

func (c *StripeCharger) CreateIntent(bookingID, amountCents int64) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("stripe not configured")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(c.currency),
	}
	params.AddMetadata("booking_id", fmt.Sprintf("%d", bookingID))

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent.ID, nil
}
