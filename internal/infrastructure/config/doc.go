// Package config handles loading and validating TSK Pay engine configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// A missing configuration file is not an error for the desktop binary:
// LoadOrDefault falls back to defaults, which place the database in the
// application-private data directory.
//
// Security Considerations:
//   - Broker credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.LoadOrDefault(os.Getenv("TSKPAY_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Filename)
package config
