package bootstrap

import (
	"github.com/kbukum/invoicer/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig (value embedding) and provides
// ApplyDefaults/Validate satisfies it.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
