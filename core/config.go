package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageEnginePostgres = "postgres"
	StorageEngineMemory   = "memory"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		RollbarToken string
		SecretKey    string

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Lock     LockConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
	}

	StorageConfig struct {
		Engine string // postgres | memory
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		URL string // empty: in-process locks
	}

	LockConfig struct {
		TTL  time.Duration
		Wait time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the current ENV, e.g. DEV_DATABASE_NAME.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Masomo Lessons")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugAddress", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("storage.engine", StorageEnginePostgres)
	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "masomo_lessons")
	conf.SetDefault("database.user", "masomo")
	conf.SetDefault("database.password", "masomo")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("redis.url", "")
	conf.SetDefault("lock.ttl", 30*time.Second)
	conf.SetDefault("lock.wait", 3*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(ProjectRoot(wd), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		RollbarToken: conf.GetString("rollbarToken"),
		SecretKey:    conf.GetString("secretKey"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugAddress:    conf.GetString("server.debugAddress"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Storage: StorageConfig{
			Engine: strings.ToLower(conf.GetString("storage.engine")),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			URL: conf.GetString("redis.url"),
		},
		Lock: LockConfig{
			TTL:  conf.GetDuration("lock.ttl"),
			Wait: conf.GetDuration("lock.wait"),
		},
	}
}
