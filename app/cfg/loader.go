package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// ErrHelp is returned by Load when usage was printed instead of parsing.
var ErrHelp = errors.New("help requested")

type rawCfg struct {
	// Storage configuration
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./vault.db" description:"SQLite database file"`
	ExportPath string `long:"export-path" env:"EXPORT_PATH" default:"./feed_export.csv" description:"Append-only CSV export file"`

	// Application metadata
	RulesFile string `long:"rules" env:"RULES_FILE" description:"YAML file overriding sentiment keywords, signal topics and identities"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Hunt  rawHunt  `command:"hunt" description:"Fetch, enrich, store and export topic listings (default)"`
	Query rawQuery `command:"query" description:"Run a read-only SQL query against the store"`
	Serve rawServe `command:"serve" description:"Serve stored posts over a read-only HTTP API"`
}

type rawHunt struct {
	Topics      string        `long:"topics" env:"TOPICS" default:"python,quant,ethereum" description:"Comma-separated topic names"`
	Depth       int           `long:"depth" env:"DEPTH" default:"10" description:"Items requested per topic"`
	Politeness  int           `long:"politeness" env:"POLITENESS" default:"1" description:"Base delay in seconds before each topic request, 0 disables"`
	Scoring     bool          `long:"scoring" env:"ENABLE_SCORING" description:"Derive a sentiment score from titles"`
	Signal      bool          `long:"signal" env:"ENABLE_SIGNAL" description:"Attach the external chain signal"`
	Concurrency int           `long:"concurrency" env:"CONCURRENCY" default:"5" description:"Maximum topic fetches in flight"`
	BaseURL     string        `long:"base-url" env:"BASE_URL" default:"https://www.reddit.com/r" description:"Listing endpoint root"`
	Window      string        `long:"window" env:"WINDOW" default:"day" choice:"hour" choice:"day" choice:"week" choice:"month" choice:"year" choice:"all" description:"Ranking time window"`
	Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"Per-request timeout"`
	MaxRPS      float64       `long:"max-rps" env:"MAX_RPS" default:"0" description:"Global request ceiling per second, 0 disables"`
	Schedule    string        `long:"schedule" env:"SCHEDULE" description:"Cron spec for repeated hunts (e.g. @every 1h), empty runs once"`
	Preview     int           `long:"preview" env:"PREVIEW_ROWS" default:"3" description:"Enriched rows logged after each hunt"`
}

type rawQuery struct {
	Format string `long:"format" env:"QUERY_FORMAT" default:"markdown" choice:"markdown" choice:"table" choice:"csv" description:"Output format"`

	Args struct {
		SQL string `positional-arg-name:"sql" description:"SQL statement to run"`
	} `positional-args:"yes" required:"yes"`
}

type rawServe struct {
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
}

// Load reads .env, environment variables and args. With no command given the
// hunt command runs with its defaults.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.SubcommandsOptional = true

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, ErrHelp
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	mode := ModeHunt
	if parser.Active != nil {
		mode = Mode(parser.Active.Name)
	}

	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	cfg := &Cfg{
		Mode:       mode,
		DBPath:     raw.DBPath,
		ExportPath: raw.ExportPath,
		RulesFile:  raw.RulesFile,
		Timezone:   raw.Timezone,
		Debug:      raw.Debug,
		Version:    GetVersion(),
		Hunt: HuntCfg{
			Topics:            splitList(raw.Hunt.Topics),
			Depth:             raw.Hunt.Depth,
			Politeness:        raw.Hunt.Politeness,
			EnableScoring:     raw.Hunt.Scoring,
			EnableSignal:      raw.Hunt.Signal,
			Concurrency:       raw.Hunt.Concurrency,
			BaseURL:           strings.TrimRight(raw.Hunt.BaseURL, "/"),
			Window:            raw.Hunt.Window,
			Timeout:           raw.Hunt.Timeout,
			RequestsPerSecond: raw.Hunt.MaxRPS,
			Schedule:          strings.TrimSpace(raw.Hunt.Schedule),
			PreviewRows:       raw.Hunt.Preview,
		},
		Query: QueryCfg{
			SQL:    raw.Query.Args.SQL,
			Format: raw.Query.Format,
		},
		Serve: ServeCfg{
			Port: raw.Serve.Port,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	switch {
	case cfg.Hunt.Depth <= 0:
		return fmt.Errorf("depth must be positive, got %d", cfg.Hunt.Depth)
	case cfg.Hunt.Politeness < 0:
		return fmt.Errorf("politeness must not be negative, got %d", cfg.Hunt.Politeness)
	case cfg.Hunt.Concurrency <= 0:
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Hunt.Concurrency)
	case cfg.Hunt.RequestsPerSecond < 0:
		return fmt.Errorf("max-rps must not be negative, got %g", cfg.Hunt.RequestsPerSecond)
	case cfg.Hunt.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", cfg.Hunt.Timeout)
	case cfg.Mode == ModeHunt && len(cfg.Hunt.Topics) == 0:
		return errors.New("at least one topic is required")
	case cfg.Mode == ModeQuery && strings.TrimSpace(cfg.Query.SQL) == "":
		return errors.New("query must not be empty")
	}
	return nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
