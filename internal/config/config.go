// Package config resolves file, environment, and default settings for the
// wrapped services and the shared client.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Products are the wrapped applications, keyed by the names used in the
// config file and environment variables.
var Products = []string{"sonarr", "radarr", "prowlarr", "bazarr", "overseerr", "plex"}

var productURLDefaults = map[string]string{
	"sonarr":    "http://localhost:8989",
	"radarr":    "http://localhost:7878",
	"prowlarr":  "http://localhost:9696",
	"bazarr":    "http://localhost:6767",
	"overseerr": "http://localhost:5055",
	"plex":      "http://localhost:32400",
}

// Service holds one backend's connection settings. RootFolder and
// QualityProfileID only matter for the library managers, where the add
// flow needs them to build the new-item payload.
type Service struct {
	URL              string
	APIKey           string
	Enabled          bool
	DBPath           string
	PostgresURL      string
	Timeout          time.Duration
	RootFolder       string
	QualityProfileID int
}

// Configured reports whether the service has a credential to send.
func (s Service) Configured() bool {
	return s.APIKey != ""
}

// RouterSettings override the built-in routing tables and thresholds.
type RouterSettings struct {
	MinConfidence float64
	Priority      []string
	Services      map[string][]string
	Operations    map[string][]string
}

// ClientSettings are the global request-execution knobs.
type ClientSettings struct {
	RequestTimeout time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	Multiplier     float64
	JitterBound    time.Duration
	MaxDelay       time.Duration
}

// S3Settings configure the S3 backup uploader.
type S3Settings struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// GCSSettings configure the Cloud Storage backup uploader.
type GCSSettings struct {
	Bucket          string
	CredentialsFile string
}

// BackupSettings configure local backup placement and remote upload.
type BackupSettings struct {
	Dir string
	S3  S3Settings
	GCS GCSSettings
}

// Config is the fully resolved configuration.
type Config struct {
	Debug       bool
	Services    map[string]Service
	Router      RouterSettings
	Client      ClientSettings
	Backup      BackupSettings
	GitHubToken string
	AIKey       string
	AIModel     string
}

// SetDefaults registers defaults and environment bindings on v. Environment
// variables keep the names the wrapped products document: SONARR_URL,
// SONARR_API_KEY, PLEX_TOKEN, and so on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")

	for _, product := range Products {
		key := "services." + product
		v.SetDefault(key+".url", productURLDefaults[product])
		v.SetDefault(key+".enabled", true)
	}
	v.SetDefault("services.sonarr.root_folder", "/tv")
	v.SetDefault("services.sonarr.quality_profile_id", 1)
	v.SetDefault("services.radarr.root_folder", "/movies")
	v.SetDefault("services.radarr.quality_profile_id", 1)

	v.SetDefault("router.min_confidence", 0.4)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("client.request_timeout", "30s")
	v.SetDefault("client.max_retries", 3)
	v.SetDefault("client.base_delay", "500ms")
	v.SetDefault("client.multiplier", 2.0)
	v.SetDefault("client.jitter_bound", "250ms")
	v.SetDefault("client.max_delay", "30s")
	v.SetDefault("ai.model", "gemini-2.0-flash")

	for key, env := range envBindings() {
		_ = v.BindEnv(key, env)
	}
}

func envBindings() map[string]string {
	bindings := map[string]string{
		"github.token": "GITHUB_TOKEN",
		"ai.api_key":   "GEMINI_API_KEY",
	}
	for _, product := range Products {
		upper := strings.ToUpper(product)
		bindings["services."+product+".url"] = upper + "_URL"
		if product == "plex" {
			bindings["services.plex.api_key"] = "PLEX_TOKEN"
			continue
		}
		bindings["services."+product+".api_key"] = upper + "_API_KEY"
	}
	return bindings
}

// Load reads the resolved settings out of v.
func Load(v *viper.Viper) *Config {
	cfg := &Config{
		Debug:       v.GetBool("debug") || strings.EqualFold(v.GetString("log_level"), "debug"),
		Services:    make(map[string]Service, len(Products)),
		GitHubToken: v.GetString("github.token"),
		AIKey:       v.GetString("ai.api_key"),
		AIModel:     v.GetString("ai.model"),
	}

	for _, product := range Products {
		key := "services." + product
		cfg.Services[product] = Service{
			URL:              strings.TrimRight(v.GetString(key+".url"), "/"),
			APIKey:           v.GetString(key + ".api_key"),
			Enabled:          v.GetBool(key + ".enabled"),
			DBPath:           v.GetString(key + ".db_path"),
			PostgresURL:      v.GetString(key + ".postgres_url"),
			Timeout:          v.GetDuration(key + ".timeout"),
			RootFolder:       v.GetString(key + ".root_folder"),
			QualityProfileID: v.GetInt(key + ".quality_profile_id"),
		}
	}

	cfg.Router = RouterSettings{
		MinConfidence: v.GetFloat64("router.min_confidence"),
		Priority:      v.GetStringSlice("router.priority"),
		Services:      v.GetStringMapStringSlice("router.services"),
		Operations:    v.GetStringMapStringSlice("router.operations"),
	}

	cfg.Client = ClientSettings{
		RequestTimeout: v.GetDuration("client.request_timeout"),
		MaxRetries:     v.GetInt("client.max_retries"),
		BaseDelay:      v.GetDuration("client.base_delay"),
		Multiplier:     v.GetFloat64("client.multiplier"),
		JitterBound:    v.GetDuration("client.jitter_bound"),
		MaxDelay:       v.GetDuration("client.max_delay"),
	}

	cfg.Backup = BackupSettings{
		Dir: v.GetString("backup.dir"),
		S3: S3Settings{
			Bucket:          v.GetString("backup.s3.bucket"),
			Region:          v.GetString("backup.s3.region"),
			AccessKeyID:     v.GetString("backup.s3.access_key_id"),
			SecretAccessKey: v.GetString("backup.s3.secret_access_key"),
		},
		GCS: GCSSettings{
			Bucket:          v.GetString("backup.gcs.bucket"),
			CredentialsFile: v.GetString("backup.gcs.credentials_file"),
		},
	}

	return cfg
}

// Masked returns a view of the configuration suitable for printing, with
// every credential replaced by a placeholder.
func (c *Config) Masked() map[string]any {
	services := make(map[string]any, len(c.Services))
	for product, svc := range c.Services {
		services[product] = map[string]any{
			"url":     svc.URL,
			"api_key": maskSecret(svc.APIKey),
			"enabled": svc.Enabled,
		}
	}
	return map[string]any{
		"debug":    c.Debug,
		"services": services,
		"router": map[string]any{
			"min_confidence": c.Router.MinConfidence,
		},
		"client": map[string]any{
			"request_timeout": c.Client.RequestTimeout.String(),
			"max_retries":     c.Client.MaxRetries,
			"base_delay":      c.Client.BaseDelay.String(),
			"multiplier":      c.Client.Multiplier,
			"jitter_bound":    c.Client.JitterBound.String(),
			"max_delay":       c.Client.MaxDelay.String(),
		},
		"backup": map[string]any{
			"dir": c.Backup.Dir,
			"s3":  map[string]any{"bucket": c.Backup.S3.Bucket, "region": c.Backup.S3.Region, "access_key_id": maskSecret(c.Backup.S3.AccessKeyID), "secret_access_key": maskSecret(c.Backup.S3.SecretAccessKey)},
			"gcs": map[string]any{"bucket": c.Backup.GCS.Bucket, "credentials_file": c.Backup.GCS.CredentialsFile},
		},
		"github": map[string]any{"token": maskSecret(c.GitHubToken)},
		"ai":     map[string]any{"api_key": maskSecret(c.AIKey), "model": c.AIModel},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
