package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"access_insight"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type WorkspaceOptions struct {
	// ID is the single-row key the snapshot is stored under.
	ID      string `env:"WORKSPACE_ID" envDefault:"global_system_data"`
	Backend string `env:"WORKSPACE_BACKEND" envDefault:"pg"` // pg, http, file or redis
	// RemoteURL is the workspace endpoint used by the http backend and the CLI.
	RemoteURL    string        `env:"WORKSPACE_REMOTE_URL"`
	FilePath     string        `env:"WORKSPACE_FILE_PATH" envDefault:"data/workspace.json"`
	MirrorPath   string        `env:"WORKSPACE_MIRROR_PATH" envDefault:"data/workspace.mirror.json"`
	SaveDebounce time.Duration `env:"WORKSPACE_SAVE_DEBOUNCE" envDefault:"2s"`
	// PollInterval of 0 disables the remote refresh loop.
	PollInterval time.Duration `env:"WORKSPACE_POLL_INTERVAL" envDefault:"0"`
	CacheTTL     time.Duration `env:"WORKSPACE_CACHE_TTL" envDefault:"24h"`
}

func (w *WorkspaceOptions) Validate() error {
	backend := strings.ToLower(strings.TrimSpace(w.Backend))
	if backend == "" {
		backend = "pg"
	}
	switch backend {
	case "pg", "http", "file", "redis":
	default:
		return fmt.Errorf("invalid WORKSPACE_BACKEND=%q (expected pg|http|file|redis)", w.Backend)
	}
	if backend == "http" && strings.TrimSpace(w.RemoteURL) == "" {
		return fmt.Errorf("WORKSPACE_REMOTE_URL is required when WORKSPACE_BACKEND is 'http'")
	}
	if w.SaveDebounce < 0 {
		return fmt.Errorf("WORKSPACE_SAVE_DEBOUNCE must be non-negative, got %s", w.SaveDebounce)
	}
	if w.PollInterval < 0 {
		return fmt.Errorf("WORKSPACE_POLL_INTERVAL must be non-negative, got %s", w.PollInterval)
	}
	w.Backend = backend
	return nil
}

type InsightsOptions struct {
	Model    string `env:"INSIGHTS_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL  string `env:"INSIGHTS_BASE_URL"`
	MaxUsers int    `env:"INSIGHTS_MAX_USERS" envDefault:"50"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Workspace  WorkspaceOptions
	Insights   InsightsOptions
	Prometheus PrometheusOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	OpenAIKey        string `env:"OPENAI_KEY"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	MaxUploadSize    int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Server will look for this header in the request, if it's not present, it will generate a random uuidv4
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Server will look for this header in the request, if it's not present, it will use request.RemoteAddr
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production { // assume 'https' on production mode
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Workspace.Validate(); err != nil {
		return fmt.Errorf("workspace configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("DOMAIN") == "" {
		c.Domain = "localhost"
	}
	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
