package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Host       string            `yaml:"host" validate:"required"`
	Port       int               `yaml:"port" validate:"gt=1024,lte=65535"`
	LogLevel   string            `yaml:"log_level" validate:"omitempty,oneof=DEBUG INFO WARNING ERROR"`
	LogFile    string            `yaml:"log_file"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port" validate:"gte=0,lte=65535"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Cache      MCacheConfig      `yaml:"cache"`
	Dashboard  MDashboardConfig  `yaml:"dashboard"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" validate:"required,oneof=sqlite postgres"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days" validate:"gt=0"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout" validate:"gt=0"`
	MaxRetries     int      `yaml:"retries" validate:"gte=0"`
	UserAgent      string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Symbols          []string        `yaml:"symbols" validate:"required,min=1,dive,required"`
	DefaultRangeDays int             `yaml:"default_range_days" validate:"gt=0"`
	Sources          []MSourceConfig `yaml:"sources" validate:"required,min=1,dive"`
}

// MSourceConfig names a provider. Sources are tried in the listed order.
type MSourceConfig struct {
	Name   string `yaml:"name" validate:"required,oneof=yahoo polygon"`
	APIKey string `yaml:"api_key"` // Optional
}

type MCacheConfig struct {
	TTLMinutes  int `yaml:"ttl_minutes" validate:"gte=0"`
	MaxEntries  int `yaml:"max_entries" validate:"gte=0"`
	MaxMemoryMB int `yaml:"max_memory_mb" validate:"gte=0"`
}

type MDashboardConfig struct {
	Currency       string `yaml:"currency" validate:"required,len=3"`
	ChartMaxPoints int    `yaml:"chart_max_points" validate:"gte=0"`
}
