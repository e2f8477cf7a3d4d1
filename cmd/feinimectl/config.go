package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// configEnv は設定ファイルのパスを上書きする環境変数。
const configEnv = "FEINIMECTL_CONFIG"

// Config はfeinimectlの設定。
type Config struct {
	GatewayURL  string       `toml:"gateway_url"`
	JikanURL    string       `toml:"jikan_url"`
	SessionFile string       `toml:"session_file"`
	Timeout     duration     `toml:"timeout"`
	LogLevel    string       `toml:"log_level"`
	Google      GoogleConfig `toml:"google"`
}

// GoogleConfig はサインインに使うGoogle OAuthクライアントの設定。
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// duration はTOMLの文字列 "10s" をtime.Durationとして読む。
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig はTOMLファイルを読み込む。
// ファイルにない項目は埋め込みの既定値のまま残る。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// DefaultConfig は埋め込みの設定例から既定値を返す。
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile は設定例をpathに書き出す。既存ファイルは上書きしない。
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath は環境変数FEINIMECTL_CONFIG、なければユーザー設定ディレクトリ配下のパスを返す。
func DefaultConfigPath() string {
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "feinimectl.toml"
	}
	return filepath.Join(dir, "feinime", "config.toml")
}

// sessionPath はsession_fileが空の場合に既定の保存先を返す。
func (c *Config) sessionPath() string {
	if c.SessionFile != "" {
		return c.SessionFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".feinime-session.json"
	}
	return filepath.Join(dir, "feinime", "session.json")
}
