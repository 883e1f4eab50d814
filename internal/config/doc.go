// Package config loads the goguard service environment.
//
// Variables use the GOGUARD_ prefix and are read with envconfig after an
// optional dotenv file. [Spec.EngineConfig] maps them onto goGuard.Config.
package config
