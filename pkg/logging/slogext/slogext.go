package slogext

import (
	"log/slog"
	"strconv"
	"unicode/utf8"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Path logs a filesystem path. Paths are raw bytes and are quoted when
// they are not printable UTF-8.
func Path(key string, path string) slog.Attr {
	if utf8.ValidString(path) && strconv.CanBackquote(path) {
		return slog.String(key, path)
	}
	return slog.String(key, strconv.Quote(path))
}
