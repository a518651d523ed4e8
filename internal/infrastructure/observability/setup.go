package observability

import (
	"context"
)

func Setup(serviceName string) func(context.Context) error {
	InitLogger()
	InitMetrics()
	return InitTracing(serviceName)
}
