package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hr-onboarding-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "hr",
		Password: "secret",
		Name:     "hr_onboarding",
	})

	assert.Equal(t, "host=db.internal port=5433 user=hr password=secret dbname=hr_onboarding sslmode=disable", dsn)
}
