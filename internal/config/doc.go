// Package config provides configuration loading and validation for the
// energy VAD service. It handles YAML-based configuration with struct
// validation; every detection parameter is explicit, with no defaults
// inferred from the audio data.
package config
