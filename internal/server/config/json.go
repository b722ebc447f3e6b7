package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/contactbook/internal/flagx"
	"github.com/dmitrijs2005/contactbook/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "1h" and integer nanoseconds are accepted. Only keys present in the
// file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	PasswordHashCost            *int            `json:"password_hash_cost"`
	PublicBaseURL               *string         `json:"public_base_url"`
	TmpDir                      *string         `json:"tmp_dir"`
	AvatarStorage               *string         `json:"avatar_storage"`
	AvatarDir                   *string         `json:"avatar_dir"`
	AvatarSize                  *int            `json:"avatar_size"`
	AvatarMaxEdge               *int            `json:"avatar_max_edge"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	SMTPHost                    *string         `json:"smtp_host"`
	SMTPPort                    *int            `json:"smtp_port"`
	SMTPUser                    *string         `json:"smtp_user"`
	SMTPPassword                *string         `json:"smtp_password"`
	MailFrom                    *string         `json:"mail_from"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config, if any, and copies every
// key it sets into config.
func parseJson(config *Config) error {
	path := flagx.ConfigFilePath(os.Args[1:])
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setInt(&config.PasswordHashCost, c.PasswordHashCost)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.TmpDir, c.TmpDir)
	setString(&config.AvatarStorage, c.AvatarStorage)
	setString(&config.AvatarDir, c.AvatarDir)
	setInt(&config.AvatarSize, c.AvatarSize)
	setInt(&config.AvatarMaxEdge, c.AvatarMaxEdge)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
