package sim

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestMain keeps the per-lap fallback logging (predictor and pace misses) out
// of test output. Run with DEBUG_TESTS=1 to see it.
func TestMain(m *testing.M) {
	level := logrus.WarnLevel
	if os.Getenv("DEBUG_TESTS") != "" {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	os.Exit(m.Run())
}
