package payments

import (
	"strings"

	"github.com/google/uuid"
)

// Formato dos ids de transação do custodiante simulado.
// O sufixo hex de 12 caracteres vem de um uuid v4.

func ChargeID(reference string) string { return "chg_" + reference + "_" + shortID() }

func PayoutID(destination string) string { return "payout_" + destination + "_" + shortID() }

func RefundID(chargeID string) string { return "refund_" + chargeID + "_" + shortID() }

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
