package config_test

import (
	"fmt"

	"github.com/wonny/dietdash/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Dataset: %s\n", cfg.Dataset.Path)
	fmt.Printf("Store driver: %s\n", cfg.Store.Driver)
	fmt.Printf("Page size: %d\n", cfg.Dashboard.PageSize)
}
