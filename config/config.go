package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// FetchMode selects the search implementation: "api" (JSON search API)
	// or "browser" (headless Chrome against the listing site).
	FetchMode     string
	HarvestAPIURL string
	ChromeBin     string

	PlanPath string
}

// Plan is the scrape plan: which periods and locations to walk, where the
// CSV output lives, and the search radius. Loaded from a YAML file so the
// location list can be edited without a rebuild.
type Plan struct {
	Years          []string `yaml:"years"`
	Locations      []string `yaml:"locations"`
	LocationPrefix string   `yaml:"location_prefix"`
	DataDir        string   `yaml:"data_dir"`
	RadiusMiles    int      `yaml:"radius_miles"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "homeharvest"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		FetchMode:     getEnv("FETCH_MODE", "api"),
		HarvestAPIURL: getEnv("HARVEST_API_BASE_URL", "http://localhost:8080"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		PlanPath: getEnv("SCRAPE_PLAN_PATH", "config/plan.yaml"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// LoadPlan reads the scrape plan from path. A missing file yields the
// built-in default plan; a present but malformed file is an error.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPlan(), nil
		}
		return nil, fmt.Errorf("config: read plan %q: %w", path, err)
	}

	plan := &Plan{}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("config: parse plan %q: %w", path, err)
	}

	defaults := DefaultPlan()
	if len(plan.Years) == 0 {
		plan.Years = defaults.Years
	}
	if len(plan.Locations) == 0 {
		plan.Locations = defaults.Locations
	}
	if plan.LocationPrefix == "" {
		plan.LocationPrefix = defaults.LocationPrefix
	}
	if plan.DataDir == "" {
		plan.DataDir = defaults.DataDir
	}
	if plan.RadiusMiles == 0 {
		plan.RadiusMiles = defaults.RadiusMiles
	}

	return plan, nil
}

// DefaultPlan returns the Oklahoma City metro plan the pipeline was built
// around.
func DefaultPlan() *Plan {
	return &Plan{
		Years: []string{"2020", "2021", "2022", "2023", "2024"},
		Locations: []string{
			"Oklahoma City, OK",
			"Seward, OK",
			"Guthrie, OK",
			"Edmond, OK",
			"Norman, OK",
			"Moore, OK",
			"Yukon, OK",
			"Perry, OK",
			"Stillwater, OK",
			"Perkins, OK",
			"Langston, OK",
			"Hennessey, OK",
			"Kingfisher, OK",
		},
		LocationPrefix: "OKC",
		DataDir:        "data",
		RadiusMiles:    100,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
