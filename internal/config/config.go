package config

import (
	"os"
	"strconv"
	"time"
)

// Config is built once at startup and passed to each component; nothing reads
// the environment after this.
type Config struct {
	HTTPAddr    string
	PostgresDSN string

	// Identity this node signs outbound requests with.
	BankName    string
	BankCode    string
	BankCountry string

	// PEM key material, base64-encoded in the environment or referenced by
	// file path. The private key is mandatory for any deployment that signs.
	PrivateKeyBase64      string
	PrivateKeyPath        string
	AuthorityPubKeyBase64 string
	AuthorityPubKeyPath   string
	SitePubKeyBase64      string
	SitePubKeyPath        string

	// Bank role: where the clearing authority lives.
	AuthorityEndpoint string

	// Authority role: template of the bank payment URL, with a {data}
	// placeholder for the encoded envelope.
	BankPayURLTemplate string

	SessionTTLSeconds int

	PolicyBundlePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:              addr,
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		BankName:              os.Getenv("BANK_NAME"),
		BankCode:              os.Getenv("BANK_CODE"),
		BankCountry:           os.Getenv("BANK_COUNTRY"),
		PrivateKeyBase64:      os.Getenv("PRIVATE_KEY_PEM_BASE64"),
		PrivateKeyPath:        os.Getenv("PRIVATE_KEY_PATH"),
		AuthorityPubKeyBase64: os.Getenv("AUTHORITY_PUBLIC_KEY_PEM_BASE64"),
		AuthorityPubKeyPath:   os.Getenv("AUTHORITY_PUBLIC_KEY_PATH"),
		SitePubKeyBase64:      os.Getenv("SITE_PUBLIC_KEY_PEM_BASE64"),
		SitePubKeyPath:        os.Getenv("SITE_PUBLIC_KEY_PATH"),
		AuthorityEndpoint:     os.Getenv("AUTHORITY_ENDPOINT"),
		BankPayURLTemplate:    os.Getenv("BANK_PAY_URL_TEMPLATE"),
		SessionTTLSeconds:     envIntDefault("SESSION_TTL_SECONDS", 300),
		PolicyBundlePath:      os.Getenv("POLICY_BUNDLE_PATH"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               envIntDefault("REDIS_DB", 0),
	}
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SessionTTLSeconds) * time.Second
}
