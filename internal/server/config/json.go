package config

import (
	"encoding/json"
	"os"

	"github.com/mkarpovs/crewtally/internal/flagx"
	"github.com/mkarpovs/crewtally/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// Duration fields use timex.Duration so both "5m" strings and integer
// nanoseconds parse. Only non-zero values are copied onto the runtime Config
// so the JSON file can override selectively.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	StoreBackend                string         `json:"store_backend"`
	DataDir                     string         `json:"data_dir"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SessionDuration             timex.Duration `json:"session_duration"`
	LockoutDuration             timex.Duration `json:"lockout_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags into the provided Config. If neither flag is set, nothing is
// loaded. An unreadable or invalid file panics: a half-applied config is
// worse than a crash at startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.StoreBackend != "" {
		config.StoreBackend = c.StoreBackend
	}
	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.SessionDuration.Duration != 0 {
		config.SessionDuration = c.SessionDuration.Duration
	}
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
