// Package config loads the service configuration from YAML.
//
// Before parsing, ${VAR} references are replaced with environment values;
// a reference to an unset variable is an error. Bare $name text is left
// alone so token placeholders such as $site survive, and $$ produces a
// literal $.
//
// Absent fields keep the values from Default. The result is validated
// with go-playground/validator and observe.Config.Validate.
package config
