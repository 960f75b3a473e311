package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AuditConfiguration struct {
	BaseDN   string
	DcFQDN   string
	Username string
	Password string
	PageSize uint32
}

// LoadEnvConfig reads the connection settings from an env file plus the
// process environment. LDAP_PAGESIZE is optional and defaults to 1000.
func LoadEnvConfig(configName string) (AuditConfiguration, error) {
	if err := godotenv.Load(configName); err != nil {
		return AuditConfiguration{}, fmt.Errorf("error loading env file %q: %w", configName, err)
	}

	cfg := AuditConfiguration{
		BaseDN:   os.Getenv("LDAP_BASEDN"),
		DcFQDN:   os.Getenv("LDAP_DCFQDN"),
		Username: os.Getenv("LDAP_USERNAME"),
		Password: os.Getenv("LDAP_PASSWORD"),
		PageSize: 1000,
	}

	if cfg.BaseDN == "" {
		return AuditConfiguration{}, fmt.Errorf("LDAP_BASEDN is not set")
	}
	if cfg.DcFQDN == "" {
		return AuditConfiguration{}, fmt.Errorf("LDAP_DCFQDN is not set")
	}

	if raw := os.Getenv("LDAP_PAGESIZE"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil || pageSize <= 0 {
			return AuditConfiguration{}, fmt.Errorf("invalid LDAP_PAGESIZE %q", raw)
		}
		cfg.PageSize = uint32(pageSize)
	}

	return cfg, nil
}
