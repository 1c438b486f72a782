package constants

type ContextKey string

const (
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "request-start"
)
