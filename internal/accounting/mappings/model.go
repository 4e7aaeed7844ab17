package mappings

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// AccountMapping links an integration key to a ledger account, so posters
// never hard code account ids.
type AccountMapping struct {
	Module      string    `json:"module"`
	Key         string    `json:"key"`
	AccountID   int64     `json:"account_id"`
	AccountCode string    `json:"account_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var folder = cases.Fold()

// Normalize folds module and key so lookups ignore case and surrounding space.
func Normalize(s string) string {
	return folder.String(strings.TrimSpace(s))
}
