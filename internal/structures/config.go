package structures

import "time"

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type TrackerConfig struct {
	PollInterval  time.Duration `yaml:"pollInterval" validate:"required|min:1"`
	FlushInterval time.Duration `yaml:"flushInterval" validate:"required|min:1"`
	SessionMin    time.Duration `yaml:"sessionMin"`
	TrackSelf     bool          `yaml:"trackSelf"`
	SelfID        int64         `yaml:"selfId"`
}

type BoardConfig struct {
	PostHour   int                 `yaml:"postHour" validate:"min:0|max:23"`
	PostMinute int                 `yaml:"postMinute" validate:"min:0|max:59"`
	Timezone   string              `yaml:"timezone" validate:"required"`
	ShowMax    int                 `yaml:"showMax"`
	Compliment bool                `yaml:"compliments"`
	Aliases    map[string][]string `yaml:"aliases"`
}

type GlyphsConfig struct {
	CachePath       string        `yaml:"cachePath" validate:"required|unixPath"`
	HydrateInterval time.Duration `yaml:"hydrateInterval" validate:"required|min:1"`
	HealthInterval  time.Duration `yaml:"healthInterval"`
}

type SchedulerConfig struct {
	StatePath      string        `yaml:"statePath" validate:"required|unixPath"`
	ManualFlagPath string        `yaml:"manualFlagPath"`
	CheckInterval  time.Duration `yaml:"checkInterval" validate:"required|min:1"`
}

type StorageConfig struct {
	DBPath          string        `yaml:"dbPath" validate:"required|unixPath"`
	ArchiveDir      string        `yaml:"archiveDir"`
	RetentionDays   int           `yaml:"retentionDays"`
	ArchiveInterval time.Duration `yaml:"archiveInterval"`
	FlushRetries    int           `yaml:"flushRetries"`
	FlushBackoff    time.Duration `yaml:"flushBackoff"`
}

type GatewayConfig struct {
	BaseURL        string        `yaml:"baseUrl" validate:"required|fullUrl"`
	Room           string        `yaml:"room" validate:"required"`
	Channel        string        `yaml:"channel" validate:"required"`
	AdminChannel   string        `yaml:"adminChannel"`
	Transport      string        `yaml:"transport" validate:"in:bot,user"`
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"required|min:1"`
	Retries        int           `yaml:"retries"`
	Backoff        time.Duration `yaml:"backoff"`
}

type ExportConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Secret  string        `yaml:"secret"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	Tracker   TrackerConfig   `yaml:"tracker"`
	Board     BoardConfig     `yaml:"board"`
	Glyphs    GlyphsConfig    `yaml:"glyphs"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Export    ExportConfig    `yaml:"export"`
	WebServer Server          `yaml:"webServer"`
	Logger    LoggerConfig    `yaml:"logger"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
