// Package guard flips the runtime into test mode before any test body
// runs. Blank-import it from packages whose tests must never start the
// real server or touch live infrastructure.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CLUBFORGE_TEST_MODE") == "" {
			_ = os.Setenv("CLUBFORGE_TEST_MODE", "1")
		}
	})
}
