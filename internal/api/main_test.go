package api

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// http.Server keepalive and test server helpers linger briefly.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
