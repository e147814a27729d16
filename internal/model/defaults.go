package model

import "time"

// Shared defaults used by both the TUI and the stub service binaries.
const (
	DefaultBaseURL        = "https://rates.staging.api.paytron.com"
	DefaultRequestTimeout = 10 * time.Second

	DefaultMarkup        = 0.005  // fee fraction applied to the marked-up amount
	DefaultPollRate      = 0.0001 // progress per millisecond (~10s per cycle)
	DefaultFireThreshold = 0.998
	DefaultCooldown      = 2 * time.Second
	DefaultFrameInterval = time.Second / 60

	DefaultSellCountry = "AU"
	DefaultBuyCountry  = "US"
	DefaultSeedRate    = 0.7456

	DefaultHistorySize = 60

	DefaultStubAddr = "127.0.0.1:8088"
)
