// Package config defines the filtering pipeline's configuration surface: every
// stage threshold is a named parameter with a documented default, settable via
// DSFILTER_-prefixed environment variables or a YAML file overlay, and
// validated before a pipeline run starts.
package config
