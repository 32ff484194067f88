package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	PlayerID     string
	PlayerIDFile string
	Output       string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("BULLCOW_SERVER", "http://localhost:8080"),
		PlayerID:     os.Getenv("BULLCOW_PLAYER_ID"),
		PlayerIDFile: getEnvOrDefault("BULLCOW_PLAYER_ID_FILE", defaultPlayerIDFile()),
		Output:       "text",
	}
}

// LoadPlayerID resolves the player id from the flag, then the id file.
// When neither has one a fresh id is generated and saved, so that later
// runs reconnect as the same player.
func (c *Config) LoadPlayerID() error {
	if c.PlayerID != "" {
		return nil
	}

	data, err := os.ReadFile(c.PlayerIDFile)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			c.PlayerID = id
			return nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read player id file: %w", err)
	}

	return c.SavePlayerID(uuid.NewString())
}

// SavePlayerID saves the id to the player id file
func (c *Config) SavePlayerID(id string) error {
	c.PlayerID = id

	dir := filepath.Dir(c.PlayerIDFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.PlayerIDFile, []byte(id), 0600)
}

func defaultPlayerIDFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bullcow/player_id"
	}
	return filepath.Join(home, ".bullcow", "player_id")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
