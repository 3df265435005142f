package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when log.appname is not configured.
	ErrAppNameIsEmpty = errors.New("toml config log.appname can not be empty")

	// ErrServiceNameIsEmpty is returned when log.servicename is not configured.
	ErrServiceNameIsEmpty = errors.New("toml config log.servicename can not be empty")
)

// ErrorHandler reports events zerolog failed to write.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "hotel-site: could not write log event: %v\n", err)
}
