package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the matching environment variable is unset.
const (
	DefaultAddr              = ":8080"
	DefaultEnvironment       = "local"
	DefaultIssueDelay        = 2000 * time.Millisecond
	DefaultVerifyDelay       = 800 * time.Millisecond
	DefaultBaseBlockNumber   = int64(10245)
	DefaultEventLogCapacity  = 1000
	DefaultCredentialsTopic  = "credentia.credentials"
	DefaultEventsTopic       = "credentia.events"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultRequestTimeoutPad = 5 * time.Second
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	Ledger Ledger
	Kafka  Kafka

	ShutdownTimeout time.Duration
}

// Ledger configures the transaction simulator.
type Ledger struct {
	IssueDelay       time.Duration
	VerifyDelay      time.Duration
	BaseBlockNumber  int64
	EventLogCapacity int
}

// Kafka configures event publication. An empty broker list disables it.
type Kafka struct {
	Brokers          []string
	CredentialsTopic string
	EventsTopic      string
}

// Enabled reports whether brokers are configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// RequestTimeout is the handler deadline: an issue blocks for the mining
// delay so the deadline sits above it.
func (s Server) RequestTimeout() time.Duration {
	return max(s.Ledger.IssueDelay, s.Ledger.VerifyDelay) + DefaultRequestTimeoutPad
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed values are reported rather than silently defaulted.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        envOr("CREDENTIA_ADDR", DefaultAddr),
		Environment: envOr("CREDENTIA_ENV", DefaultEnvironment),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		Ledger: Ledger{
			IssueDelay:       DefaultIssueDelay,
			VerifyDelay:      DefaultVerifyDelay,
			BaseBlockNumber:  DefaultBaseBlockNumber,
			EventLogCapacity: DefaultEventLogCapacity,
		},
		Kafka: Kafka{
			Brokers:          splitList(os.Getenv("KAFKA_BROKERS")),
			CredentialsTopic: envOr("KAFKA_TOPIC_CREDENTIALS", DefaultCredentialsTopic),
			EventsTopic:      envOr("KAFKA_TOPIC_EVENTS", DefaultEventsTopic),
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	var err error
	if cfg.Ledger.IssueDelay, err = durationEnv("ISSUE_DELAY", cfg.Ledger.IssueDelay); err != nil {
		return Server{}, err
	}
	if cfg.Ledger.VerifyDelay, err = durationEnv("VERIFY_DELAY", cfg.Ledger.VerifyDelay); err != nil {
		return Server{}, err
	}
	if raw := os.Getenv("BASE_BLOCK_NUMBER"); raw != "" {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || n < 0 {
			return Server{}, fmt.Errorf("BASE_BLOCK_NUMBER must be a non-negative integer: %q", raw)
		}
		cfg.Ledger.BaseBlockNumber = n
	}
	if raw := os.Getenv("EVENT_LOG_CAPACITY"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n <= 0 {
			return Server{}, fmt.Errorf("EVENT_LOG_CAPACITY must be a positive integer: %q", raw)
		}
		cfg.Ledger.EventLogCapacity = n
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration: %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
