// Package config holds runtime configuration for pagesnap.
//
// Configuration flows from three places, in increasing precedence:
// built-in defaults, the optional .pagesnap YAML file (found in the current
// directory or the user's home directory), and CLI flags. The resulting
// Config struct is passed through the application by dependency injection;
// there is no global configuration state.
package config
