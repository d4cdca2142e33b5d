// Package config handles loading and validating radmond configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with a .env file and environment variables
//   - Validation of required fields
//   - Default value handling
//
// The agent runs entirely from defaults plus command-line flags when no
// config file is named; optional integrations (MQTT, InfluxDB, the event
// journal) stay disabled unless switched on here.
//
// Security Considerations:
//   - Sensitive values (broker passwords, InfluxDB tokens) should be set
//     via environment variables rather than the config file
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Monitor.URL)
package config
