package config

import (
	"strconv"
	"time"
)

type OAuthConfig interface {
	GetAuthCodeLifetime() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetSigningSecret() string
	GetIssuer() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthCodeLifetime() time.Duration {
	return durationEnv("AUTH_CODE_LIFETIME_SECONDS", 600*time.Second)
}

func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY_SECONDS", 1*time.Hour)
}

func (OAuth) GetSigningSecret() string {
	return GetEnv("SIGNING_SECRET", "dev-signing-secret")
}

func (OAuth) GetIssuer() string {
	return GetEnv("ISSUER", "http://localhost:8080")
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
