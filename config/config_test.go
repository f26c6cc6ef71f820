package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("EMAIL_TEST_MODE", "off")
	t.Setenv("CLAIM_NUMBER_PREFIX", "")
	t.Setenv("TRANSFER_RATE_PER_MINUTE", "many")
	t.Setenv("UPLOAD_RATE_PER_MINUTE", "12")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.False(t, cfg.EmailTestMode)
	assert.Equal(t, DefaultClaimNumberPrefix, cfg.ClaimNumberPrefix)
	assert.Equal(t, 60, cfg.TransferRatePerMinute)
	assert.Equal(t, 12, cfg.UploadRatePerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Environment: "production", MaxUploadMB: 25, UploadRatePerMinute: 30, TransferRatePerMinute: 60, ClaimNumberPrefix: "CLM"}
	}

	assert.NoError(t, valid().Validate())

	partial := valid()
	partial.R2BucketName = "claims"
	assert.Error(t, partial.Validate())

	partial.Environment = "development"
	assert.NoError(t, partial.Validate())

	full := valid()
	full.R2AccountID, full.R2AccessKeyID, full.R2SecretAccessKey, full.R2BucketName = "acc", "key", "secret", "claims"
	assert.True(t, full.R2Configured())
	assert.NoError(t, full.Validate())

	noUploads := valid()
	noUploads.MaxUploadMB = 0
	assert.Error(t, noUploads.Validate())

	noUploadRate := valid()
	noUploadRate.UploadRatePerMinute = 0
	assert.Error(t, noUploadRate.Validate())

	noPrefix := valid()
	noPrefix.ClaimNumberPrefix = ""
	assert.Error(t, noPrefix.Validate())
}
