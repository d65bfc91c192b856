//go:build prod

package database

import (
	"log"
	"os"
	"path/filepath"
)

// GetDefaultDBPath returns the database path for production mode.
// In production, the database is stored in the user's data directory.
func GetDefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Printf("Warning: Failed to get user config dir: %v. Using fallback.", err)
		return "promptforge.db"
	}

	appDir := filepath.Join(configDir, "promptforge")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		log.Printf("Warning: Failed to create app data dir: %v. Using fallback.", err)
		return "promptforge.db"
	}

	return filepath.Join(appDir, "promptforge.db")
}

func IsDevelopment() bool {
	return false
}
