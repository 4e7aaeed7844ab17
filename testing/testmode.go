// Package testing switches the process into test mode when blank-imported
// from a test, so app wiring skips listeners and background workers.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BYTEK_TEST_MODE", "1")
		if os.Getenv("INCOME_TAX_RATE") == "" {
			_ = os.Setenv("INCOME_TAX_RATE", "29.5")
		}
	})
}

func init() {
	ensureTestMode()
}
