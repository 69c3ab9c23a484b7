package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/willemschots/emailauth/internal/auth"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/email/mailgun"
	"github.com/willemschots/emailauth/internal/email/smtp"
	"github.com/willemschots/emailauth/internal/krypto"
	"github.com/willemschots/emailauth/internal/web"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"

	transportLog     = "log"
	transportSMTP    = "smtp"
	transportMailgun = "mailgun"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	server          web.ServerConfig
}

type dbConfig struct {
	driver  string
	dsn     string
	migrate bool
}

type authConfig struct {
	jwtSecret krypto.Secret
	service   auth.ServiceConfig
}

type emailConfig struct {
	transport string
	service   email.ServiceConfig
	smtp      smtp.Settings
	mailgun   mailgun.Settings
}

// config is the configuration for the server command.
type config struct {
	http  httpConfig
	db    dbConfig
	auth  authConfig
	email emailConfig
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		http: httpConfig{
			addr:            ":5000",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			server: web.ServerConfig{
				AllowedOrigin: "*",
			},
		},
		db: dbConfig{
			driver:  driverSQLite,
			dsn:     "emailauth.db",
			migrate: true,
		},
		auth: authConfig{
			service: auth.ServiceConfig{
				WorkerTimeout: time.Second * 10,
				TokenTTL:      time.Hour * 24,
				VerifyURL:     "http://localhost:3000/auth/verify/",
			},
		},
		email: emailConfig{
			transport: transportLog,
			smtp: smtp.Settings{
				Host: "smtp.gmail.com:465",
			},
			mailgun: mailgun.Settings{
				APIHost: "api.eu.mailgun.net",
			},
		},
	}
}

// requiredEnv are the env variables that have no usable default.
var requiredEnv = []string{
	"JWT_SECRET",
	"EMAIL_FROM",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"PORT": func(v string, c *config) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if port < 1 || port > math.MaxUint16 {
			return fmt.Errorf("port %d out of range", port)
		}
		// HTTP_ADDR takes precedence.
		if _, ok := os.LookupEnv("HTTP_ADDR"); !ok {
			c.http.addr = ":" + v
		}
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_ALLOWED_ORIGIN": func(v string, c *config) error {
		return confNonEmpty(v, &c.http.server.AllowedOrigin)
	},
	"DB_DRIVER": func(v string, c *config) error {
		return confOneOf(v, &c.db.driver, driverSQLite, driverPostgres)
	},
	"DB_DSN": func(v string, c *config) error {
		return confNonEmpty(v, &c.db.dsn)
	},
	"DB_MIGRATE": func(v string, c *config) error {
		return confBool(v, &c.db.migrate)
	},
	"JWT_SECRET": func(v string, c *config) error {
		s, err := krypto.ParseSecret(v)
		if err != nil {
			return err
		}
		c.auth.jwtSecret = s
		return nil
	},
	"VERIFY_URL": func(v string, c *config) error {
		u, err := url.Parse(v)
		if err != nil {
			return err
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.New("url requires a scheme and a host")
		}
		c.auth.service.VerifyURL = v
		return nil
	},
	"VERIFY_TOKEN_TTL": func(v string, c *config) error {
		return confDuration(v, &c.auth.service.TokenTTL, 0, math.MaxInt64)
	},
	"AUTH_WORKER_TIMEOUT": func(v string, c *config) error {
		// a zero timeout would cancel every notification before it is sent.
		return confDuration(v, &c.auth.service.WorkerTimeout, time.Millisecond, math.MaxInt64)
	},
	"EMAIL_TRANSPORT": func(v string, c *config) error {
		return confOneOf(v, &c.email.transport, transportLog, transportSMTP, transportMailgun)
	},
	"EMAIL_FROM": func(v string, c *config) error {
		addr, err := email.ParseAddress(v)
		if err != nil {
			return err
		}
		c.email.service.From = addr
		return nil
	},
	"SMTP_HOST": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.smtp.Host)
	},
	"SMTP_USERNAME": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.smtp.Username)
	},
	"SMTP_PASSWORD": func(v string, c *config) error {
		return confSecret(v, &c.email.smtp.Password)
	},
	"MAILGUN_API_HOST": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.mailgun.APIHost)
	},
	"MAILGUN_DOMAIN": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.mailgun.Domain)
	},
	"MAILGUN_USERNAME": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.mailgun.Username)
	},
	"MAILGUN_PASSWORD": func(v string, c *config) error {
		return confSecret(v, &c.email.mailgun.Password)
	},
}

// loadDotEnv loads env variables from file, if it exists. Variables that are
// already set in the environment are not overwritten.
func loadDotEnv(file string) error {
	err := godotenv.Load(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error
	for _, key := range requiredEnv {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}

	return c, c.validateTransport()
}

// validateTransport checks that the selected email transport has the
// settings it needs.
func (c config) validateTransport() error {
	var missing []string
	switch c.email.transport {
	case transportSMTP:
		if c.email.smtp.Username == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
		if c.email.smtp.Password.IsZero() {
			missing = append(missing, "SMTP_PASSWORD")
		}
	case transportMailgun:
		if c.email.mailgun.Domain == "" {
			missing = append(missing, "MAILGUN_DOMAIN")
		}
		if c.email.mailgun.Username == "" {
			missing = append(missing, "MAILGUN_USERNAME")
		}
		if c.email.mailgun.Password.IsZero() {
			missing = append(missing, "MAILGUN_PASSWORD")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("email transport %q requires env variables %v", c.email.transport, missing)
	}
	return nil
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

func confBool(v string, tgt *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*tgt = b
	return nil
}

func confNonEmpty(v string, tgt *string) error {
	if v == "" {
		return errors.New("empty value")
	}
	*tgt = v
	return nil
}

func confSecret(v string, tgt *krypto.Secret) error {
	s, err := krypto.ParseSecret(v)
	if err != nil {
		return err
	}
	*tgt = s
	return nil
}

func confOneOf(v string, tgt *string, options ...string) error {
	for _, o := range options {
		if v == o {
			*tgt = v
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", v, options)
}
