package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	AuthModeHeader   = "header"
	AuthModeFirebase = "firebase"
)

type Config struct {
	Port      int    `envconfig:"PORT" default:"5000"`
	APIPrefix string `envconfig:"API_PREFIX" default:"/api"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// DBURL takes precedence over MONGO_URI.
	DBURL               string        `envconfig:"DBURL"`
	MongoURI            string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase       string        `envconfig:"MONGO_DATABASE" default:"auth-app"`
	MongoConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
	MongoTransactions   bool          `envconfig:"MONGO_TRANSACTIONS" default:"false"`

	AuthMode                string `envconfig:"AUTH_MODE" default:"header"`
	AuthHeader              string `envconfig:"AUTH_HEADER" default:"X-Firebase-UID"`
	FirebaseProjectID       string `envconfig:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`
	JWTSecret               string `envconfig:"JWT_SECRET"`
	AdminEnforce            bool   `envconfig:"ADMIN_ENFORCE" default:"false"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string `envconfig:"KAFKA_ORDER_TOPIC" default:"storefront.orders"`

	OrderTotalPolicy string `envconfig:"ORDER_TOTAL_POLICY" default:"trust"`
	CartMaxRetries   int    `envconfig:"CART_MAX_RETRIES" default:"5"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "failed to process env vars")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeHeader:
	case AuthModeFirebase:
		if c.FirebaseProjectID == "" && c.FirebaseCredentialsFile == "" {
			return errors.New("AUTH_MODE=firebase needs FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_FILE")
		}
	default:
		return errors.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	switch c.OrderTotalPolicy {
	case "trust", "verify":
	default:
		return errors.Errorf("unknown ORDER_TOTAL_POLICY %q", c.OrderTotalPolicy)
	}
	if c.CartMaxRetries < 1 {
		return errors.New("CART_MAX_RETRIES must be at least 1")
	}
	if strings.TrimSpace(c.MongoURL()) == "" {
		return errors.New("set DBURL or MONGO_URI")
	}
	return nil
}

func (c *Config) MongoURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return c.MongoURI
}

// DatabaseName prefers the database named in the connection string path over MONGO_DATABASE.
func (c *Config) DatabaseName() string {
	cs, err := connstring.ParseAndValidate(c.MongoURL())
	if err == nil && cs.Database != "" {
		return cs.Database
	}
	return c.MongoDatabase
}

func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokers) != ""
}
