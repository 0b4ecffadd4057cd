package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName       = errors.New("invalid application name")
	ErrInvalidEnvironment   = errors.New("invalid environment")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidRate          = errors.New("invalid heartbeat rate")
	ErrInvalidBeats         = errors.New("invalid beat count")
	ErrInvalidCapacity      = errors.New("invalid channel capacity")
	ErrInvalidGeneratorRate = errors.New("invalid generator rate")
	ErrInvalidTimeout       = errors.New("invalid timeout")
	ErrInvalidMaxRestarts   = errors.New("invalid max restarts")
	ErrInvalidSampling      = errors.New("invalid sampling settings")
	ErrInvalidPercentile    = errors.New("invalid percentile")
	ErrInvalidTrigger       = errors.New("invalid alert trigger")
	ErrInvalidAddress       = errors.New("invalid monitor address")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound  = errors.New("configuration file not found")
	ErrConfigParseError    = errors.New("configuration parse error")
	ErrConfigValidateError = errors.New("configuration validation error")
	ErrEnvironmentVarError = errors.New("environment variable error")
	ErrUnsupportedFormat   = errors.New("unsupported configuration format")
)
