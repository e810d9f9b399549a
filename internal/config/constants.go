package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	AIRequestTimeout      = 45 * time.Second
	PDFRenderTimeout      = 60 * time.Second
	WorkerShutdownTimeout = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days

	// Worker timeouts
	WorkerPollInterval      = 5 * time.Second
	WorkerHeartbeatInterval = 30 * time.Second
)

// AI retry constants
const (
	// AIMaxRetries is the number of additional attempts after the first
	// request when the failure is classified as rate-limit or quota.
	AIMaxRetries = 3
	// AIInitialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry.
	AIInitialBackoff = 2 * time.Second
)

// Grading constants
const (
	// MasteryThreshold is the minimum score that marks an exercise completed.
	MasteryThreshold = 70
	// FallbackScore is assigned when AI grading is unavailable or unusable.
	FallbackScore = 50
)

// PDF and storage constants
const (
	// SignedURLTTL bounds how long a generated download link stays valid.
	SignedURLTTL = 1 * time.Hour
	// PDFJobMaxAttempts caps how many times a failed PDF job is retried.
	PDFJobMaxAttempts = 3
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "lingotext-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:;"
)
