// Package daemon provides the main orchestration for muid.
// It runs the initial setup, then keeps the integration in line with the
// host's configuration.yaml, the config entries and the user's custom
// actions while the daemon runs.
package daemon
