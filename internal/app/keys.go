package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/quokkalabs/passage/pkg/cryptox"
	"github.com/quokkalabs/passage/pkg/jwtx"
)

// InitCodec builds the token codec from configuration.
//
// HS256 signs with the configured shared secret. The asymmetric
// algorithms load a PEM key from JWT_KEY_FILE, generating and persisting
// one on first start; with no key file configured the key is ephemeral
// and every outstanding token dies on restart.
func InitCodec(cfg Config, logger *slog.Logger) (*jwtx.Codec, error) {
	opts := jwtx.CodecOptions{
		Algorithm: cfg.Algorithm,
		KID:       cfg.KeyID,
		Issuer:    cfg.Issuer,
		Namespace: cfg.ClaimsNamespace,
		TTL:       cfg.AccessTokenTTL,
	}

	switch cfg.Algorithm {
	case jwtx.AlgHS256:
		opts.Secret = []byte(cfg.Secret)

	case jwtx.AlgRS256, jwtx.AlgEdDSA:
		pemKey, err := loadOrGenerateKey(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts.PrivateKeyPEM = pemKey

	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.Algorithm)
	}

	codec, err := jwtx.NewCodec(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize token codec: %w", err)
	}

	logger.Info("token codec initialized",
		"algorithm", cfg.Algorithm,
		"kid", cfg.KeyID,
		"issuer", cfg.Issuer,
	)
	return codec, nil
}

func loadOrGenerateKey(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.KeyFile != "" {
		pemKey, err := os.ReadFile(cfg.KeyFile)
		if err == nil {
			return pemKey, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
	}

	pemKey, err := generateKey(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	if cfg.KeyFile == "" {
		logger.Warn("no JWT_KEY_FILE configured, signing key is ephemeral")
		return pemKey, nil
	}

	if err := os.WriteFile(cfg.KeyFile, pemKey, 0o600); err != nil {
		return nil, fmt.Errorf("persist signing key: %w", err)
	}
	logger.Info("generated new signing key", "path", cfg.KeyFile, "algorithm", cfg.Algorithm)
	return pemKey, nil
}

func generateKey(algorithm string) ([]byte, error) {
	switch algorithm {
	case jwtx.AlgRS256:
		return cryptox.GenerateRSAKey(2048)
	case jwtx.AlgEdDSA:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("no key generator for algorithm %q", algorithm)
	}
}
