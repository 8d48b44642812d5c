package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Gateway struct {
		// BaseURL of the retrieval backend, e.g. http://127.0.0.1:8000
		BaseURL string `yaml:"base_url"`
	} `yaml:"gateway"`
	Security struct {
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		APIKeys struct {
			Frontend    []string `yaml:"frontend"`
			AllowUnauth bool     `yaml:"allow_unauth"`
		} `yaml:"api_keys"`
	} `yaml:"security"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Retention struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		// MaxThreads caps the thread list; 0 means uncapped.
		MaxThreads int `yaml:"max_threads"`
		// MaxMessagesPerThread caps each history; 0 means uncapped.
		MaxMessagesPerThread int `yaml:"max_messages_per_thread"`
	} `yaml:"retention"`
	Validation struct {
		MaxContentLen int `yaml:"max_content_len"`
	} `yaml:"validation"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns
// their values along with a map indicating which were explicitly set.
func ParseCommandFlags() (addr, dbPath, cfgPath, gatewayURL string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	gwPtr := flag.String("gateway", "http://127.0.0.1:8000", "Retrieval backend base URL")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, *gwPtr, setFlags
}

// LoadEnvOverrides applies environment overrides onto cfg and reports
// whether any env var was used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("DOCCHAT_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("DOCCHAT_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("DOCCHAT_GATEWAY_URL"); v != "" {
		envUsed = true
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("DOCCHAT_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("DOCCHAT_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("DOCCHAT_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("DOCCHAT_API_FRONTEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Frontend = parseList(v)
	}
	if v := os.Getenv("DOCCHAT_API_ALLOW_UNAUTH"); v != "" {
		envUsed = true
		vl := strings.ToLower(strings.TrimSpace(v))
		cfg.Security.APIKeys.AllowUnauth = vl == "1" || vl == "true" || vl == "yes"
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DOCCHAT_RETENTION_CRON"); v != "" {
		envUsed = true
		cfg.Retention.Enabled = true
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("DOCCHAT_RETENTION_MAX_THREADS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Retention.MaxThreads = n
		}
	}
	if v := os.Getenv("DOCCHAT_RETENTION_MAX_MESSAGES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Retention.MaxMessagesPerThread = n
		}
	}
	if c := os.Getenv("DOCCHAT_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("DOCCHAT_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// LoadEffective loads config from path and applies environment overrides,
// reporting which of the two sources contributed. A missing file is not
// fatal; env and flags can fully configure the server.
func LoadEffective(path string) (cfg *Config, fileLoaded, envUsed bool, err error) {
	cfg, err = Load(path)
	if err != nil {
		cfg = &Config{}
	} else {
		fileLoaded = true
	}
	envUsed = LoadEnvOverrides(cfg)
	return cfg, fileLoaded, envUsed, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and DOCCHAT_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("DOCCHAT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
