// Package autoload initializes the global logger from the LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/pkg/config"
	logx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
