package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds runtime wiring options for the client CLI.
type Config struct {
	Home        string        `mapstructure:"home"`      // session directory, e.g. $HOME/.zkpass
	Network     string        `mapstructure:"network"`   // ledger network name sent to the prover
	RPCURL      string        `mapstructure:"rpc_url"`   // ledger JSON-RPC endpoint
	RelayURL    string        `mapstructure:"relay_url"` // gateway base URL
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	Session  SessionConfig  `mapstructure:"session"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Login    LoginConfig    `mapstructure:"login"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

// SessionConfig selects where the zkLogin session is persisted.
type SessionConfig struct {
	Backend    string      `mapstructure:"backend"` // "file" or "redis"
	Passphrase string      `mapstructure:"passphrase"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig locates the redis session store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// OAuthConfig is the OAuth client used for zkLogin.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	RedirectURL  string `mapstructure:"redirect_url"`
	AuthEndpoint string `mapstructure:"auth_endpoint"`
}

// LoginConfig tunes login completion.
type LoginConfig struct {
	EpochWindow       uint64 `mapstructure:"epoch_window"`
	PermissiveAddress bool   `mapstructure:"permissive_address"`
}

// WalletConfig locates the keystore used by the wallet path.
type WalletConfig struct {
	Keystore  string `mapstructure:"keystore"`
	Key       string `mapstructure:"key"` // address or index; empty selects the first key
	GasBudget uint64 `mapstructure:"gas_budget"`
}

// RegistryConfig locates the car registry deployment.
type RegistryConfig struct {
	Package      string `mapstructure:"package"`
	CarRegistry  string `mapstructure:"car_registry"`
	AuthRegistry string `mapstructure:"auth_registry"`
	AdminCap     string `mapstructure:"admin_cap"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// EnvPrefix prefixes environment overrides of the client configuration.
const EnvPrefix = "ZKPASS"

// DefaultHome returns $HOME/.zkpass, or .zkpass when the home directory is unknown.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zkpass"
	}
	return filepath.Join(home, ".zkpass")
}

// SetDefaults registers every client key with its default so that
// environment overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("home", DefaultHome())
	v.SetDefault("network", "testnet")
	v.SetDefault("rpc_url", "https://fullnode.testnet.sui.io:443")
	v.SetDefault("relay_url", "http://127.0.0.1:8080")
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("call_timeout", 30*time.Second)

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.passphrase", "")
	v.SetDefault("session.redis.addr", "127.0.0.1:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key", "zkpass:session")
	v.SetDefault("session.redis.ttl", 0)

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.redirect_url", "http://localhost:3000/auth")
	v.SetDefault("oauth.auth_endpoint", "https://accounts.google.com/o/oauth2/v2/auth")

	v.SetDefault("login.epoch_window", 2)
	v.SetDefault("login.permissive_address", false)

	v.SetDefault("wallet.keystore", filepath.Join(DefaultHome(), "sui.keystore"))
	v.SetDefault("wallet.key", "")
	v.SetDefault("wallet.gas_budget", 50_000_000)

	v.SetDefault("registry.package", "0x781ebcf6049b015b991983a0db5e1a5aaad673ad68ee18ab8f94e45a073bea4f")
	v.SetDefault("registry.car_registry", "0x2167b0c857ab8d99813dec5661fafbcb175f214059ccfdf370a81d1656c38e38")
	v.SetDefault("registry.auth_registry", "0x4abdbcaa3bcaea3369f216b4a442880b71aff59d8a5310337de2ace7e0b72a8a")
	v.SetDefault("registry.admin_cap", "0xa36089280d79521ac7778f21670287c4388459e601c668480755becbf66bfc39")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// LoadConfig reads the client configuration from defaults, the optional
// config file and ZKPASS_* environment variables, in increasing precedence.
func LoadConfig(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	if err := readInto(v, EnvPrefix, file); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Session.Backend {
	case "file", "redis":
	default:
		return errors.Errorf("session.backend must be file or redis, got %q", c.Session.Backend)
	}
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if c.RelayURL == "" {
		return errors.New("relay_url is required")
	}
	return nil
}

func readInto(v *viper.Viper, prefix, file string) error {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", file)
	}
	return nil
}
