package core

import "log/slog"

// LoggerOrDefault returns logger, or the process default logger when nil
func LoggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
