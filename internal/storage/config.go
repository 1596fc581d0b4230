package storage

import "time"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	// Prefix is prepended to every thumbnail object key.
	Prefix string
	// URLExpiry bounds the lifetime of presigned thumbnail URLs.
	URLExpiry time.Duration
}

// Enabled reports whether an endpoint was configured.
func (c *MinIOConfig) Enabled() bool {
	return c != nil && c.Endpoint != ""
}
