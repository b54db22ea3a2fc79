package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/mealvote/pkg/cryptox"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
)

// InitAuthKeys loads the pepper and the session signing key.
//
// With auth.signingkeyfile set the key is read from disk, or generated and
// written there on first start, so sessions survive restarts. Without it an
// ephemeral key is generated and every session dies with the process.
func InitAuthKeys(cfg AuthConfig, logger *slog.Logger) (*jwtx.KeyManager, cryptox.Hasher, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, cryptox.Hasher{}, fmt.Errorf("failed to load pepper: %w", err)
	}

	var pemKey []byte
	if cfg.SigningKeyFile != "" {
		if pemKey, err = cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile); err != nil {
			return nil, cryptox.Hasher{}, err
		}
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile)
	} else {
		logger.Warn("no signing key file configured, sessions will not survive a restart")
	}

	keyManager, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		PrivateKeyPEM: pemKey,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, cryptox.Hasher{}, fmt.Errorf("failed to initialize signing key: %w", err)
	}

	logger.Info("session signing ready", "algorithm", "EdDSA", "issuer", cfg.Issuer)
	return keyManager, cryptox.Hasher{Pepper: pepper}, nil
}
