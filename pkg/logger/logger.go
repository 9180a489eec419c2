package logger

import "go.uber.org/zap"

// NewLogger builds the production logger shared by all components.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// Named returns a child logger tagged with a component name.
func Named(l *zap.Logger, component string) *zap.Logger {
	return l.With(zap.String("component", component))
}
