package config

import "time"

// WebSocket connection limits and constraints
const (
	MaxConnectionsPerGame = 50

	// Channel buffers
	HubBroadcastBufferSize = 256

	// Timeouts
	WriteTimeout = 10 * time.Second

	// Scan tokens printed on physical tags stay valid for a long time;
	// tags are laminated once per venue, not per game night.
	ScanTokenTTL = 365 * 24 * time.Hour
)
