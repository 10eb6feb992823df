package service

type Config struct {
	DatabaseUri             string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN               string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string  `envconfig:"LOG_FILE_PATH"`
	JWTSecret               []byte  `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry               int     `envconfig:"JWT_EXPIRY" default:"172800"` // in seconds, default 2 days
	AdminToken              string  `envconfig:"ADMIN_TOKEN"`
	Host                    string  `envconfig:"HOST" default:"localhost:3000"`
	Port                    int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit        int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit          int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int     `envconfig:"PROMETHEUS_PORT" default:"9092"`
	WebhookUrl              string  `envconfig:"WEBHOOK_URL"`
	CacheStalenessWindow    int     `envconfig:"CACHE_STALENESS_WINDOW" default:"30"` // in seconds
	LedgerCallTimeout       int     `envconfig:"LEDGER_CALL_TIMEOUT" default:"15"`    // in seconds, per point query
	TipRefreshInterval      int     `envconfig:"TIP_REFRESH_INTERVAL" default:"60"`   // in seconds
	BlockIntervalSeconds    int     `envconfig:"BLOCK_INTERVAL_SECONDS" default:"600"`
	GenesisTimestamp        int64   `envconfig:"GENESIS_TIMESTAMP" default:"1610000000"` // unix seconds, fallback projection only
	Branding                BrandingConfig
}

type BrandingConfig struct {
	Title string `envconfig:"BRANDING_TITLE" default:"StackPay - Bitcoin payments on Stacks"`
	Url   string `envconfig:"BRANDING_URL" default:"https://stackpay.example.com"`
}
