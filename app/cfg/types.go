package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath   string
	RedisURL string

	// Upstream API
	APIBaseURL     string
	RequestTimeout time.Duration
	UserAgent      string

	// Application configuration
	ViewsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval time.Duration
	RefreshInterval   time.Duration
	SessionTTL        time.Duration
	APIAccessKey      string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
