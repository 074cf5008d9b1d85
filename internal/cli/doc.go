// Package cli implements the interactive modelcreator shell.
//
// NewApp wires configuration, the model store, the S3 uploader and the
// training queue into a services.ModelService; Run starts a read-eval-print
// loop on stdin. A submission started with "create" runs in the background
// so that "list", "show" and "logs" can follow it while it trains; only one
// submission runs at a time.
package cli
