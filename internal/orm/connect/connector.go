package connect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/conduit-lang/manifold/internal/orm/codegen"
	"github.com/conduit-lang/manifold/pkg/apps"
	"github.com/conduit-lang/manifold/pkg/orm/schema"
)

// DefaultConnection is the connection every component's entities use
const DefaultConnection = "default"

// ComponentModels is the connector configuration of one component
type ComponentModels struct {
	Models            []string `json:"models" yaml:"models"`
	DefaultConnection string   `json:"default_connection" yaml:"default_connection"`
}

// GenerateConfig maps each installed component label to its entity keys,
// all bound to the default connection
func GenerateConfig(reg *apps.Registry) (map[string]ComponentModels, error) {
	descriptors, err := reg.Descriptors()
	if err != nil {
		return nil, err
	}

	config := make(map[string]ComponentModels, len(descriptors))
	for _, d := range descriptors {
		models, err := d.GetModels()
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(models))
		for _, m := range models {
			keys = append(keys, m.Key())
		}
		sort.Strings(keys)
		config[d.Label()] = ComponentModels{Models: keys, DefaultConnection: DefaultConnection}
	}
	return config, nil
}

// Option configures a Connector
type Option func(*Connector)

// WithLogger sets the connector's logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDB uses an already open database for the named connection. Open
// skips connections that have one.
func WithDB(name string, db *sql.DB) Option {
	return func(c *Connector) {
		c.dbs[name] = db
	}
}

// Connector owns the open database handles of a process
type Connector struct {
	connections map[string]*Connection
	logger      *zap.Logger

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewConnector creates a connector for validated connections
func NewConnector(connections map[string]*Connection, opts ...Option) *Connector {
	c := &Connector{
		connections: connections,
		logger:      zap.NewNop(),
		dbs:         make(map[string]*sql.DB),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens and pings every connection
func (c *Connector) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range c.names() {
		conn := c.connections[name]
		c.logger.Debug("opening database connection", zap.Stringer("connection", conn))

		if _, open := c.dbs[name]; open {
			continue
		}

		db, err := openDB(conn)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("connecting to %s: %w", name, err)
		}
		c.dbs[name] = db
	}

	c.logger.Info("database connections open", zap.Strings("connections", c.names()))
	return nil
}

func openDB(conn *Connection) (*sql.DB, error) {
	if conn.Driver == "pgx" {
		cfg, err := pgx.ParseConfig(conn.DSN)
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDB(*cfg), nil
	}
	db, err := sql.Open(conn.Driver, conn.DSN)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database
	if conn.Engine == "sqlite" && strings.Contains(conn.DSN, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// names returns the configured connection names, sorted
func (c *Connector) names() []string {
	names := make([]string, 0, len(c.connections))
	for name := range c.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DB returns the open handle of a connection
func (c *Connector) DB(name string) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, ok := c.dbs[name]
	if !ok {
		return nil, fmt.Errorf("connection %s is not open", name)
	}
	return db, nil
}

// Close closes every open handle
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, db := range c.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", name, err)
		}
		delete(c.dbs, name)
	}
	c.logger.Info("database connections closed")
	return firstErr
}

// GenerateSchemas creates the tables of every registered entity on the
// default connection, dependencies first, in one transaction
func (c *Connector) GenerateSchemas(ctx context.Context, reg *apps.Registry) error {
	return c.execSchema(ctx, reg, "generating schemas", func(gen *codegen.DDLGenerator, models []*schema.Metadata) ([]string, error) {
		return gen.GenerateSchema(models)
	})
}

// DropSchemas drops the tables GenerateSchemas creates, dependents first,
// in one transaction
func (c *Connector) DropSchemas(ctx context.Context, reg *apps.Registry) error {
	return c.execSchema(ctx, reg, "dropping schemas", func(gen *codegen.DDLGenerator, models []*schema.Metadata) ([]string, error) {
		return gen.GenerateDropSchema(models), nil
	})
}

type schemaFunc func(gen *codegen.DDLGenerator, models []*schema.Metadata) ([]string, error)

// execSchema runs the statements build returns for the registry's entities
// on the default connection
func (c *Connector) execSchema(ctx context.Context, reg *apps.Registry, msg string, build schemaFunc) error {
	if err := reg.CheckModelsReady(); err != nil {
		return err
	}

	conn, ok := c.connections[DefaultConnection]
	if !ok {
		return fmt.Errorf("no %q connection configured", DefaultConnection)
	}
	db, err := c.DB(DefaultConnection)
	if err != nil {
		return err
	}

	dialect, err := codegen.ParseDialect(conn.Engine)
	if err != nil {
		return err
	}
	gen := codegen.NewDDLGenerator(dialect)

	models, err := reg.Schema().DependencyOrder()
	if err != nil {
		return err
	}
	statements, err := build(gen, models)
	if err != nil {
		return err
	}

	c.logger.Info(msg,
		zap.String("dialect", gen.Dialect().String()),
		zap.Int("statements", len(statements)))

	return withTransaction(ctx, db, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

// withTransaction executes fn within a transaction, committing on success
// and rolling back on error or panic
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
