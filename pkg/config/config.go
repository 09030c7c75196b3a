package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	Log    LogConfig
	Store  StoreConfig
	Ledger LedgerConfig
	Kafka  KafkaConfig
	Docs   DocsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig nivel del logger (trace, debug, info, warn, error).
type LogConfig struct {
	Level string
}

// StoreConfig selecciona el almacén de movimientos: "postgres" o "memory".
type StoreConfig struct {
	Driver string
}

// LedgerConfig límites del motor de consistencia.
type LedgerConfig struct {
	LockTimeout  time.Duration // espera máxima por el bloqueo de un producto
	StoreTimeout time.Duration // duración máxima de la escritura una vez iniciada
}

// KafkaConfig exportación de eventos de cambio. Sin brokers, el puente queda deshabilitado.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// DocsConfig ruta del swagger.json servido en /docs.
type DocsConfig struct {
	SwaggerPath string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, STORE_DRIVER, KAFKA_BROKERS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "stock-ledger"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", StoreDriverPostgres)),
		},
		Ledger: LedgerConfig{
			LockTimeout:  getMillis(v, "LEDGER_LOCK_TIMEOUT_MS", 5000),
			StoreTimeout: getMillis(v, "LEDGER_STORE_TIMEOUT_MS", 10000),
		},
		Kafka: KafkaConfig{
			Brokers: getList(v, "KAFKA_BROKERS"),
			Topic:   getString(v, "KAFKA_TOPIC", "stock-ledger.changes"),
			GroupID: getString(v, "KAFKA_GROUP_ID", "stock-ledger"),
		},
		Docs: DocsConfig{
			SwaggerPath: getString(v, "SWAGGER_FILE", "./docs/swagger.json"),
		},
	}

	switch cfg.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getMillis(v *viper.Viper, key string, def int) time.Duration {
	return time.Duration(getInt(v, key, def)) * time.Millisecond
}

// getList separa valores por coma ("a:9092,b:9092") descartando vacíos.
func getList(v *viper.Viper, key string) []string {
	raw := getString(v, key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
