// Package corelog builds the process zap.Logger, grounded on
// aliskhannn-asma-ul-husna-bot's internal/logger.New (environment-switched
// zap.NewProduction/zap.NewDevelopment).
package corelog

import (
	"go.uber.org/zap"

	"github.com/example/vocabhat/internal/config"
)

// New returns a production zap.Logger when cfg.Env is "production" and a
// development logger (console-encoded, debug level) otherwise.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
