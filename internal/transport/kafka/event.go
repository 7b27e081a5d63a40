package kafkat

import (
	"time"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

const EventTransactionCompleted = "transaction.completed"

// LedgerEvent is the message written for every appended ledger entry.
type LedgerEvent struct {
	Type        string              `json:"type"`
	RequestID   string              `json:"requestId,omitempty"`
	Transaction *entity.Transaction `json:"transaction"`
	PublishedAt time.Time           `json:"publishedAt"`
}

// partitionKey keeps one payee's entries in order on a single partition.
func partitionKey(txn *entity.Transaction) []byte {
	for _, id := range []*uuid.UUID{txn.VendorID, txn.UserID, txn.CustomerID} {
		if id != nil {
			return []byte(id.String())
		}
	}
	return []byte(txn.ID.String())
}
