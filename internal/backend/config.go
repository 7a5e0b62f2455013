// internal/backend/config.go
package backend

import (
	"time"

	"skillmatch/internal/common/config"
)

type Config struct {
	BaseURL     string
	CompanyPath string
	SearchPath  string
	UploadPath  string
	Timeout     time.Duration
}

func LoadConfig(cfg config.BackendConfig) *Config {
	return &Config{
		BaseURL:     cfg.BaseURL,
		CompanyPath: cfg.CompanyPath,
		SearchPath:  cfg.SearchPath,
		UploadPath:  cfg.UploadPath,
		Timeout:     config.GetDuration(cfg.Timeout),
	}
}
