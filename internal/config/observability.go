package config

// OtelConfig holds OTLP trace export settings. Tracing is disabled unless
// Enabled is set; the endpoint speaks OTLP over HTTP.
type OtelConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}
