package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bakkerme/curator-crawler/internal/crawler/jina"
)

type EnvConfig struct {
	ConfigPath  string
	JobName     string
	RunOnce     bool
	LogLevel    string
	LogFormat   string
	MetricsAddr string
	Jina        JinaEnvConfig
	OTel        OTelEnvConfig
	RSS         RSSEnvConfig
	SMTP        SMTPEnvConfig
	Seen        SeenEnvConfig
}

type JinaEnvConfig struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string
	Options     jina.Options
	OTel        HTTPOTelEnvConfig
}

// HTTPOTelEnvConfig controls body capture on outbound HTTP spans.
type HTTPOTelEnvConfig struct {
	CaptureBodies bool
	MaxBodyBytes  int
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

type RSSEnvConfig struct {
	HTTPTimeout time.Duration
	UserAgent   string
}

type SMTPEnvConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
}

type SeenEnvConfig struct {
	DBPath string
	TTL    time.Duration
}

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	return EnvConfig{
		ConfigPath:  envString("CRAWLER_CONFIG", ""),
		JobName:     envString("JOB_NAME", "crawl"),
		RunOnce:     envBool("RUN_ONCE", false),
		LogLevel:    strings.ToLower(envString("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(envString("LOG_FORMAT", "text")),
		MetricsAddr: envString("METRICS_ADDR", ""),
		Jina: JinaEnvConfig{
			APIKey:      envString("JINA_API_KEY", ""),
			BaseURL:     envString("JINA_BASE_URL", ""),
			HTTPTimeout: envDuration("JINA_HTTP_TIMEOUT", 30*time.Second),
			UserAgent:   envString("JINA_USER_AGENT", "curator-crawler/0.1"),
			Options:     loadJinaOptions(),
			OTel: HTTPOTelEnvConfig{
				CaptureBodies: envBool("OTEL_CAPTURE_JINA_BODIES", false),
				MaxBodyBytes:  envInt("OTEL_JINA_MAX_BODY_BYTES", 16*1024),
			},
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: envString("OTEL_SERVICE_NAME", "curator-crawler"),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
		RSS: RSSEnvConfig{
			HTTPTimeout: envDuration("RSS_HTTP_TIMEOUT", 10*time.Second),
			UserAgent:   envString("RSS_USER_AGENT", "curator-crawler/0.1"),
		},
		SMTP: SMTPEnvConfig{
			Host:               envString("SMTP_HOST", ""),
			Port:               envInt("SMTP_PORT", 587),
			User:               envString("SMTP_USER", ""),
			Password:           envString("SMTP_PASSWORD", ""),
			TLSMode:            envString("SMTP_TLS_MODE", ""),
			InsecureSkipVerify: envBool("SMTP_INSECURE_SKIP_VERIFY", false),
		},
		Seen: SeenEnvConfig{
			DBPath: envString("SEEN_DB_PATH", ""),
			TTL:    envDuration("SEEN_TTL", 0),
		},
	}
}

// loadJinaOptions reads the reader options. An unset variable leaves the option nil.
func loadJinaOptions() jina.Options {
	return jina.Options{
		Locale:            envStringPtr("JINA_LOCALE"),
		NoCache:           envBoolPtr("JINA_NO_CACHE"),
		ProxyURL:          envStringPtr("JINA_PROXY_URL"),
		RemoveSelector:    envStringPtr("JINA_REMOVE_SELECTOR"),
		RetainImages:      envStringPtr("JINA_RETAIN_IMAGES"),
		SetCookie:         envStringPtr("JINA_SET_COOKIE"),
		WithGeneratedAlt:  envBoolPtr("JINA_WITH_GENERATED_ALT"),
		WithIframe:        envBoolPtr("JINA_WITH_IFRAME"),
		WithShadowDom:     envBoolPtr("JINA_WITH_SHADOW_DOM"),
		WithImagesSummary: envBoolPtr("JINA_WITH_IMAGES_SUMMARY"),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envStringPtr(key string) *string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func envBool(key string, fallback bool) bool {
	if v := envBoolPtr(key); v != nil {
		return *v
	}
	return fallback
}

func envBoolPtr(key string) *bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b := false
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		b = true
	}
	return &b
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := parseDurationExtended(v)
	if err != nil {
		return fallback
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseHeaders reads the OTLP "k1=v1,k2=v2" header list.
func parseHeaders(raw string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	for _, prefix := range []string{"localhost:", "127.0.0.1:", "0.0.0.0:"} {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}
