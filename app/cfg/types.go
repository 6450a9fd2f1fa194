package cfg

import "time"

type Mode string

const (
	ModeHunt  Mode = "hunt"
	ModeQuery Mode = "query"
	ModeServe Mode = "serve"
)

type Cfg struct {
	Mode Mode

	// Storage
	DBPath     string
	ExportPath string

	// Application metadata
	RulesFile string
	Timezone  string
	Debug     bool
	Version   string

	Hunt  HuntCfg
	Query QueryCfg
	Serve ServeCfg
}

type HuntCfg struct {
	Topics            []string
	Depth             int
	Politeness        int
	EnableScoring     bool
	EnableSignal      bool
	Concurrency       int
	BaseURL           string
	Window            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Schedule          string
	PreviewRows       int
}

type QueryCfg struct {
	SQL    string
	Format string
}

type ServeCfg struct {
	Port string
}
