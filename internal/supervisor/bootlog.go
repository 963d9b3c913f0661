package supervisor

import (
	"time"

	"github.com/openeduhub/kidra/internal/logger"
)

// bootLogger handles all logging while waiting for a backend to come up.
type bootLogger struct {
	logger logger.Logger
}

func (bl *bootLogger) logSpawn(binary string, args []string, pid int, timeout time.Duration) {
	fields := []logger.Field{
		logger.String("binary", binary),
		logger.Strings("args", args),
		logger.Int("pid", pid),
	}
	if timeout > 0 {
		fields = append(fields, logger.Duration("boot_timeout", timeout))
	} else {
		fields = append(fields, logger.String("boot_timeout", "none"))
	}
	bl.logger.Info("service spawned", fields...)
}

func (bl *bootLogger) logReady(attempts int, elapsed time.Duration) {
	bl.logger.Info("service ready",
		logger.Int("attempts", attempts),
		logger.Duration("elapsed", elapsed))
}

func (bl *bootLogger) logRetry(attempt int, elapsed time.Duration, err error) {
	// a model loading for minutes is normal, so only every tenth failure is worth a warning
	if attempt%10 == 0 {
		bl.logger.Warn("service still not ready",
			logger.Int("attempt", attempt),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return
	}
	bl.logger.Debug("service not ready yet",
		logger.Int("attempt", attempt),
		logger.Error(err))
}

func (bl *bootLogger) logTimeout(attempts int, timeout time.Duration, err error) {
	bl.logger.Error("service failed to become ready",
		logger.Int("attempts", attempts),
		logger.Duration("timeout", timeout),
		logger.Error(err))
}
