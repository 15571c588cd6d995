package config

// SecretConfig holds authentication signing material.
type SecretConfig struct {
	// HMAC key used to sign and verify bearer tokens
	JWTSigningKey string `mapstructure:"jwt_signing_key" validate:"required"`
}
