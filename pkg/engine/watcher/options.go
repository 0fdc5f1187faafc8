package watcher

import (
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

func WithLogger(logger log.Logger) options.Option[Watcher] {
	return func(w *Watcher) {
		w.Logger = logger
	}
}
