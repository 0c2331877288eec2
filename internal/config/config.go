package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog/log"
)

// Step is one action inside a script. Exactly which fields matter
// depends on Action.
type Step struct {
	// Action is one of "delay", "text", "clipboard", "key" or "relay".
	Action string `json:"action"`
	// Ms is the pause length for "delay" steps.
	Ms int `json:"ms,omitempty"`
	// Text carries the payload for "text" and "clipboard" steps. It may
	// reference managed secrets as {{secret:name}}.
	Text string `json:"text,omitempty"`
	// Key names the combination for "key" steps, e.g. "ctrl+c".
	Key string `json:"key,omitempty"`
	// Command is the raw relay command byte for "relay" steps.
	Command int `json:"command,omitempty"`
	// Data is the hex-encoded payload for "relay" steps.
	Data string `json:"data,omitempty"`
}

// ScriptConfig describes one macro script and the hotkey that runs it.
type ScriptConfig struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Hotkey  string `json:"hotkey"`
	// Trigger is "once" (default) or "repeat" for fire-while-held.
	Trigger string `json:"trigger,omitempty"`
	Steps   []Step `json:"steps"`
}

// Config holds the application configuration.
type Config struct {
	UseNotifications bool           `json:"use_notifications"`
	LogLevel         string         `json:"log_level,omitempty"`
	RelayPort        string         `json:"relay_port,omitempty"`
	RelayBaud        int            `json:"relay_baud,omitempty"`
	Scripts          []ScriptConfig `json:"scripts"`
	// Secrets maps logical name -> "managed"; values live in the OS
	// keyring, never in this file.
	Secrets map[string]string `json:"secrets,omitempty"`

	// Legacy support fields (single-script format).
	Hotkey string `json:"hotkey,omitempty"`
	Steps  []Step `json:"steps,omitempty"`

	// Non-JSON runtime state.
	configPath      string
	keyringService  string
	resolvedSecrets map[string]string
}

const DefaultKeyringService = "Macroloom"

// GetConfigPath returns the path of the loaded configuration file.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetResolvedSecrets returns the secrets loaded from the keyring.
func (c *Config) GetResolvedSecrets() map[string]string {
	if c.resolvedSecrets == nil {
		return make(map[string]string)
	}
	return c.resolvedSecrets
}

// Load reads and parses the configuration file, creating a default one
// if none exists, migrating legacy single-script configs, and resolving
// managed secrets from the OS keyring.
func Load(configPath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			if createErr := CreateDefault(configPath); createErr != nil {
				return nil, fmt.Errorf("config file not found and failed to create default %q: %w", configPath, createErr)
			}
			data, err = os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %q after creating default: %w", configPath, err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
		}
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", configPath, err)
	}

	config.configPath = configPath
	config.keyringService = DefaultKeyringService
	config.loadSecrets()

	// Migrate the legacy single-script format.
	if config.Hotkey != "" && len(config.Steps) > 0 && len(config.Scripts) == 0 {
		log.Info().Msg("migrating legacy config format to scripts")
		config.Scripts = []ScriptConfig{
			{
				Name:    "Default",
				Enabled: true,
				Hotkey:  config.Hotkey,
				Steps:   config.Steps,
			},
		}
		config.Hotkey = ""
		config.Steps = nil
		if err := config.Save(); err != nil {
			log.Warn().Err(err).Msg("failed to save migrated config")
		}
	}

	return &config, nil
}

func (c *Config) loadSecrets() {
	c.resolvedSecrets = make(map[string]string)
	if len(c.Secrets) == 0 {
		return
	}

	kr, err := openKeyring(c.keyringService)
	if err != nil {
		log.Warn().Err(err).Str("service", c.keyringService).
			Msg("failed to open keyring, secrets will not be loaded")
		return
	}

	for name := range c.Secrets {
		item, err := kr.Get(name)
		switch {
		case err == nil:
			c.resolvedSecrets[name] = string(item.Data)
		case err == keyring.ErrKeyNotFound:
			log.Warn().Str("secret", name).Msg("secret not found in keyring, steps using it will fail")
		default:
			log.Error().Err(err).Str("secret", name).Msg("error retrieving secret from keyring")
		}
	}
}

func openKeyring(service string) (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
		},
		LibSecretCollectionName:  "login",
		PassPrefix:               service,
		WinCredPrefix:            service,
		KeychainTrustApplication: true,
	})
}

// Save writes the configuration back to its file. 0600: the file lists
// which secrets exist even though their values live in the keyring.
func (c *Config) Save() error {
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0600)
}

// AddSecretReference stores value in the OS keyring under name and
// records the reference in the config file.
func (c *Config) AddSecretReference(name, value string) error {
	kr, err := openKeyring(c.keyringService)
	if err != nil {
		return fmt.Errorf("failed to open keyring for service %q: %w", c.keyringService, err)
	}

	err = kr.Set(keyring.Item{
		Key:         name,
		Data:        []byte(value),
		Label:       fmt.Sprintf("Secret %s used by %s", name, c.keyringService),
		Description: "Managed by Macroloom",
	})
	if err != nil {
		return fmt.Errorf("failed to store secret %q in keyring: %w", name, err)
	}

	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	c.Secrets[name] = "managed"
	// The value itself is picked up on the next config reload.
	return c.Save()
}

// RemoveSecretReference deletes the secret from the keyring and drops
// the reference from the config file.
func (c *Config) RemoveSecretReference(name string) error {
	kr, err := openKeyring(c.keyringService)
	if err != nil {
		return fmt.Errorf("failed to open keyring for service %q: %w", c.keyringService, err)
	}

	err = kr.Remove(name)
	if err != nil && err != keyring.ErrKeyNotFound {
		log.Warn().Err(err).Str("secret", name).Msg("failed to delete secret from keyring")
	}

	if c.Secrets != nil {
		delete(c.Secrets, name)
	}
	return c.Save()
}

// GetSecretNames lists the logical names of managed secrets, sorted for
// stable display.
func (c *Config) GetSecretNames() []string {
	names := make([]string, 0, len(c.Secrets))
	for name := range c.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateDefault writes a starter configuration file unless one already
// exists.
func CreateDefault(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking config path %q: %w", configPath, err)
	}

	defaultConfig := &Config{
		UseNotifications: true,
		LogLevel:         "info",
		RelayBaud:        115200,
		Secrets:          make(map[string]string),
		Scripts: []ScriptConfig{
			{
				Name:    "Paste Greeting",
				Enabled: true,
				Hotkey:  "ctrl+alt+g",
				Steps: []Step{
					{Action: "clipboard", Text: "Hello from Macroloom"},
					{Action: "delay", Ms: 100},
					{Action: "key", Key: "ctrl+v"},
				},
			},
			{
				Name:    "Example Secret Expansion",
				Enabled: false,
				Hotkey:  "ctrl+alt+s",
				Steps: []Step{
					{Action: "text", Text: "{{secret:my_token}}"},
				},
			},
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write default config file %q: %w", configPath, err)
	}
	log.Info().Str("path", configPath).Msg("default configuration file created")
	return nil
}
