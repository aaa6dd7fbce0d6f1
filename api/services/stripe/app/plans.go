package app

// Plan is one entry of the pricing catalog.
type Plan struct {
	Name         string   `json:"name"`
	DisplayPrice string   `json:"price"`
	AmountCents  int64    `json:"price_amount"`
	PriceID      string   `json:"price_id"`
	Features     []string `json:"features"`
}

// DefaultPlans mirrors the monthly prices configured in the provider dashboard.
var DefaultPlans = []Plan{
	{
		Name:         "Basic",
		DisplayPrice: "$9/month",
		AmountCents:  900,
		PriceID:      "price_test_basic_monthly",
		Features:     []string{"Feature 1", "Feature 2", "Feature 3"},
	},
	{
		Name:         "Pro",
		DisplayPrice: "$29/month",
		AmountCents:  2900,
		PriceID:      "price_test_pro_monthly",
		Features:     []string{"Everything in Basic", "Feature 4", "Feature 5", "Priority support"},
	},
	{
		Name:         "Enterprise",
		DisplayPrice: "$99/month",
		AmountCents:  9900,
		PriceID:      "price_test_enterprise_monthly",
		Features:     []string{"Everything in Pro", "Feature 6", "Custom integrations", "Dedicated support"},
	},
}

// PlanForPrice finds the plan billed with priceID.
func PlanForPrice(plans []Plan, priceID string) (Plan, bool) {
	if priceID == "" {
		return Plan{}, false
	}
	for _, p := range plans {
		if p.PriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}
