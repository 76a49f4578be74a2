// Package config loads rex configuration.
//
// Configuration lives in rex.json, rex.yaml or rex.yml in the project
// directory. Every field is optional; missing fields take the values of
// New.
//
// # Configuration File Structure
//
//	logLevel: info
//	logFormat: text
//	reorder: true
//	layoutClasses: [Grid]
//	maxPropagationDepth: 100
//	events:
//	  onHover: MouseEnter
//	metrics:
//	  enabled: true
//	  namespace: rex
//	tracing:
//	  tracerName: rex
//
// # Usage
//
//	cfg, err := config.Load(afero.NewOsFs(), ".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
