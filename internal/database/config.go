package database

// Config holds configuration for the contact store.
type Config struct {
	// Driver selects the backend: sqlite3, postgres or memory.
	Driver string `mapstructure:"driver" default:"sqlite3"`
	// URL is the data source name. For sqlite3 it is a file path or :memory:.
	URL string `mapstructure:"url" default:"./identity.db"`
	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"10"`
	// MaxIdleConns caps idle connections kept in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
	// ConnMaxLifetimeSeconds recycles connections older than this.
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds" default:"3600"`
	// TimeoutSeconds bounds the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// TxRetries is how many times a transaction aborted by a serialization
	// conflict is re-run.
	TxRetries int `mapstructure:"tx_retries" default:"3"`
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)
