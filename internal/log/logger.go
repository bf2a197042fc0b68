package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.Logger]

// Init builds the process logger. prod selects zap's JSON production config;
// otherwise the human readable development config is used.
func Init(prod bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if prod {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	global.Store(l)
	return l, nil
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Infof(format string, args ...any) { L().Sugar().Infof(format, args...) }
