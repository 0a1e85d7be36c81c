// Package config loads the YAML configuration of the audiosweep tool.
//
// Every field left out of a file, or set to its zero value, is taken from
// [Default]. Configurations can be layered with [Config.Merge], which only
// fills unset fields, and [Config.Override], which replaces fields that are
// set in the other configuration. The converters build the option and
// configuration values of the measurement packages.
package config
