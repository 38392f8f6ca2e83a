package topics

const (
	// Apostas
	BetLifecycle = "bet_lifecycle"

	// DLQs
	BetLifecycleDLQ = "bet_lifecycle_dlq"
)
