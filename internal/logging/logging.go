package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/config"
)

// Setup configures the global zerolog logger.
// Console output is used outside production; a rotating file sink is added when file_path is set.
func Setup(cfg config.LoggingConfig, env string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var stdout io.Writer = os.Stderr
	if env != "production" || cfg.Format == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	writers := []io.Writer{stdout}
	if cfg.FilePath != "" {
		rotator, err := rotatelogs.New(
			cfg.FilePath+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.FilePath),
			rotatelogs.WithMaxAge(cfg.MaxAge),
			rotatelogs.WithRotationTime(cfg.RotationTime),
		)
		if err != nil {
			return fmt.Errorf("failed to create log rotator: %w", err)
		}
		writers = append(writers, rotator)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("service", "smm-bot").
		Logger()

	return nil
}
