package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vidhub/internal/flagx"
	"github.com/dmitrijs2005/vidhub/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations go through
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Keys missing from the file leave the current value untouched.
type JsonConfig struct {
	HTTPAddress                  string         `json:"http_address"`
	DatabaseDSN                  string         `json:"database_dsn"`
	AccessTokenSecret            string         `json:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicURL                  string         `json:"s3_public_url"`
	UploadDir                    string         `json:"upload_dir"`
	MaxUploadBytes               int64          `json:"max_upload_bytes"`
	CORSOrigin                   string         `json:"cors_origin"`
	CookieSameSite               string         `json:"cookie_samesite"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson overlays cfg with the file named by -c / -config. Without the
// flag nothing happens. Read or decode failures panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddress, jc.HTTPAddress)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.AccessTokenSecret, jc.AccessTokenSecret)
	setString(&cfg.RefreshTokenSecret, jc.RefreshTokenSecret)
	if jc.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshTokenValidityDuration.Duration > 0 {
		cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	}
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3PublicURL, jc.S3PublicURL)
	setString(&cfg.UploadDir, jc.UploadDir)
	if jc.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = jc.MaxUploadBytes
	}
	setString(&cfg.CORSOrigin, jc.CORSOrigin)
	setString(&cfg.CookieSameSite, jc.CookieSameSite)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
