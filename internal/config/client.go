package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every client environment override.
const EnvPrefix = "CHATDEMO_"

// Client is the chat client configuration.
type Client struct {
	Server      ServerConfig `yaml:"server"`
	Chat        ChatConfig   `yaml:"chat"`
	Locale      string       `yaml:"locale,omitempty"`
	StoragePath string       `yaml:"storage_path,omitempty"`
}

// ServerConfig locates the application auth server.
type ServerConfig struct {
	Protocol  string        `yaml:"protocol,omitempty"`
	Domain    string        `yaml:"domain,omitempty"`
	BaseUser  string        `yaml:"base_user,omitempty"`
	LoginPath string        `yaml:"login_path,omitempty"`
	SMSPath   string        `yaml:"sms_path,omitempty"`
	CAFile    string        `yaml:"ca_file,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// ChatConfig configures the chat provider.
type ChatConfig struct {
	AppKey           string `yaml:"app_key,omitempty"`
	AutoLogin        *bool  `yaml:"auto_login,omitempty"`
	EnableChatTyping *bool  `yaml:"enable_chat_typing,omitempty"`
	Custom           Custom `yaml:"custom"`
}

// Custom is an optional custom deployment.
type Custom struct {
	Enabled bool   `yaml:"enabled"`
	AppKey  string `yaml:"app_key,omitempty"`
}

// DefaultClientConfigPath honours CHATDEMO_CONFIG, then the user config dir.
func DefaultClientConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG")); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatdemo", "config.yaml"), nil
}

// LoadDotenv loads .env files into the environment. Missing files are ignored.
func LoadDotenv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadClient reads the YAML config at path, applies CHATDEMO_* overrides and
// fills defaults. A missing file yields the defaults.
func LoadClient(path string) (*Client, error) {
	cfg := &Client{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Client) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"SERVER_PROTOCOL": &c.Server.Protocol,
		"SERVER_DOMAIN":   &c.Server.Domain,
		"CA_FILE":         &c.Server.CAFile,
		"APP_KEY":         &c.Chat.AppKey,
		"CUSTOM_APP_KEY":  &c.Chat.Custom.AppKey,
		"LOCALE":          &c.Locale,
		"STORAGE_PATH":    &c.StoragePath,
	}
	for name, dst := range str {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	if v := getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Server.Timeout = d
	}
	if v := getenv(EnvPrefix + "CUSTOM_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCUSTOM_ENABLED: %w", EnvPrefix, err)
		}
		c.Chat.Custom.Enabled = b
	}
	if v := getenv(EnvPrefix + "AUTO_LOGIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sAUTO_LOGIN: %w", EnvPrefix, err)
		}
		c.Chat.AutoLogin = &b
	}
	return nil
}

func (c *Client) setDefaults() {
	if c.Server.Protocol == "" {
		c.Server.Protocol = "https"
	}
	if c.Server.Domain == "" {
		c.Server.Domain = "localhost:8080"
	}
	if c.Server.BaseUser == "" {
		c.Server.BaseUser = "/inside/app/user/"
	}
	if c.Server.LoginPath == "" {
		c.Server.LoginPath = "login/V2"
	}
	if c.Server.SMSPath == "" {
		c.Server.SMSPath = "/inside/app/sms/send"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.StoragePath == "" {
		c.StoragePath = "chatdemo.json"
	}
	if c.Chat.AutoLogin == nil {
		c.Chat.AutoLogin = boolPtr(true)
	}
	if c.Chat.EnableChatTyping == nil {
		c.Chat.EnableChatTyping = boolPtr(true)
	}
}

func boolPtr(b bool) *bool { return &b }

func (c *Client) origin() string {
	return c.Server.Protocol + "://" + c.Server.Domain
}

// LoginURL is protocol://domain + base user path + login path.
func (c *Client) LoginURL() string {
	return c.origin() + c.Server.BaseUser + c.Server.LoginPath
}

// SMSURL is protocol://domain + sms path.
func (c *Client) SMSURL() string {
	return c.origin() + c.Server.SMSPath
}

func (c *Client) AutoLogin() bool {
	return c.Chat.AutoLogin == nil || *c.Chat.AutoLogin
}

func (c *Client) ChatTyping() bool {
	return c.Chat.EnableChatTyping == nil || *c.Chat.EnableChatTyping
}

// CustomSetEnabled reports whether the custom deployment is on.
func (c *Client) CustomSetEnabled() bool {
	return c.Chat.Custom.Enabled
}

// CustomAppKey returns the custom deployment's app key.
func (c *Client) CustomAppKey() string {
	return c.Chat.Custom.AppKey
}
