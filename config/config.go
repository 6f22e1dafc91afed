package config

import (
	"os"
	"strings"
	"time"
)

// Settings carries every runtime knob, read once from the environment at
// startup and passed explicitly to the components that need it.
type Settings struct {
	Port        string
	DatabaseURL string

	// CachePath is the local SQLite file holding the cached snapshot and
	// the offline queue. Empty selects the in-memory fallback.
	CachePath string
	// CacheTTL is the freshness window for a cached snapshot.
	CacheTTL time.Duration
	// PollInterval is how often the gateway checks collections for remote
	// changes.
	PollInterval time.Duration

	// ReminderCron is the schedule of the daily warranty-reminder sweep.
	ReminderCron string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsappNumber string
	TwilioPhoneNumber    string

	AllowedOrigins []string
}

func Load() Settings {
	s := Settings{
		Port:                 getenv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DB_URL"),
		CachePath:            getenv("CACHE_PATH", "cngcrm-cache.db"),
		CacheTTL:             getenvDuration("CACHE_TTL", 15*time.Minute),
		PollInterval:         getenvDuration("POLL_INTERVAL", 10*time.Second),
		ReminderCron:         getenv("REMINDER_CRON", "0 9 * * *"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsappNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TwilioPhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.AllowedOrigins = append(s.AllowedOrigins, o)
			}
		}
	} else {
		s.AllowedOrigins = []string{"http://localhost:3000"}
	}
	return s
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
