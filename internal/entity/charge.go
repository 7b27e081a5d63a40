package entity

// ChargeRequest is what the card processor needs to move money. Amounts are minor units.
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	MethodRef   string
	CustomerRef string
	Description string
	OffSession  bool
	Metadata    map[string]string

	// IdempotencyKey makes retried charges for the same payment collapse into one at the processor.
	IdempotencyKey string
}

type ChargeResult struct {
	ExternalID string
	Status     string
}
