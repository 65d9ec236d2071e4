// Package connect opens the database connections configured for a project
// and creates the tables of the registry's entities.
package connect

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// Settings is one entry of the "databases" configuration. Either URL or
// Engine plus Credentials must be set.
type Settings struct {
	URL         string            `mapstructure:"url" json:"url,omitempty" yaml:"url,omitempty"`
	Engine      string            `mapstructure:"engine" json:"engine,omitempty" yaml:"engine,omitempty"`
	Credentials map[string]string `mapstructure:"credentials" json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// Connection is a validated connection ready to be opened
type Connection struct {
	Name     string
	Engine   string // normalized engine: sqlite, postgres or pgx
	Driver   string // database/sql driver name
	DSN      string
	Password string

	redacted string // DSN with the password replaced
}

// String returns the connection with its password masked
func (c *Connection) String() string {
	dsn := c.redacted
	if dsn == "" && c.Password == "" {
		dsn = c.DSN
	}
	return fmt.Sprintf("%s(%s %s)", c.Name, c.Engine, dsn)
}

// engines maps accepted engine names to normalized engine and driver
var engines = map[string][2]string{
	"sqlite":     {"sqlite", "sqlite3"},
	"sqlite3":    {"sqlite", "sqlite3"},
	"postgres":   {"postgres", "postgres"},
	"postgresql": {"postgres", "postgres"},
	"pgx":        {"pgx", "pgx"},
}

// ValidateConnections checks every configured database and builds its
// connection. All problems are reported together.
func ValidateConnections(databases map[string]Settings, timezone string) (map[string]*Connection, error) {
	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	conns := make(map[string]*Connection, len(databases))

	for _, name := range names {
		conn, err := newConnection(name, databases[name], timezone)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		conns[name] = conn
	}

	if err := mferrors.Join(mferrors.ErrConfiguration, "databases", problems); err != nil {
		return nil, err
	}
	return conns, nil
}

func newConnection(name string, s Settings, timezone string) (*Connection, error) {
	engine := strings.ToLower(s.Engine)

	var u *url.URL
	if s.URL != "" {
		parsed, err := url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid url: %w", err)
		}
		u = parsed
		if engine == "" {
			engine = strings.ToLower(u.Scheme)
		}
	} else {
		if engine == "" {
			return nil, fmt.Errorf("missing 'engine' parameter")
		}
		if len(s.Credentials) == 0 {
			return nil, fmt.Errorf("missing 'credentials' parameter")
		}
	}

	resolved, ok := engines[engine]
	if !ok {
		return nil, fmt.Errorf("incorrect database engine %q", engine)
	}

	conn := &Connection{
		Name:   name,
		Engine: resolved[0],
		Driver: resolved[1],
	}

	if conn.Engine == "sqlite" {
		conn.DSN = sqliteDSN(u, s.Credentials)
		if conn.DSN == "" {
			return nil, fmt.Errorf("sqlite needs a 'path' credential or a sqlite:// url")
		}
		return conn, nil
	}

	if u == nil {
		u = postgresURL(s.Credentials)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		u.Scheme = "postgres"
	}
	if pw, ok := u.User.Password(); ok {
		conn.Password = pw
	}
	if timezone != "" {
		q := u.Query()
		if q.Get("timezone") == "" {
			q.Set("timezone", timezone)
			u.RawQuery = q.Encode()
		}
	}
	conn.DSN = u.String()
	conn.redacted = u.Redacted()

	return conn, nil
}

func sqliteDSN(u *url.URL, creds map[string]string) string {
	if u != nil {
		if u.Opaque != "" {
			return u.Opaque
		}
		return u.Host + u.Path
	}
	for _, key := range []string{"path", "file", "database"} {
		if v := creds[key]; v != "" {
			return v
		}
	}
	return ""
}

func postgresURL(creds map[string]string) *url.URL {
	u := &url.URL{Scheme: "postgres", Host: creds["host"], Path: "/" + creds["database"]}
	if u.Host == "" {
		u.Host = "localhost"
	}
	if port := creds["port"]; port != "" {
		u.Host += ":" + port
	}
	if user := creds["user"]; user != "" {
		if pw := creds["password"]; pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	q := url.Values{}
	if mode := creds["sslmode"]; mode != "" {
		q.Set("sslmode", mode)
	}
	u.RawQuery = q.Encode()
	return u
}
