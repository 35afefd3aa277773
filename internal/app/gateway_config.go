package app

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// GatewayEnvPrefix prefixes environment overrides of the gateway configuration.
const GatewayEnvPrefix = "ZKPASS_GATEWAY"

// GatewayConfig holds runtime options for the gateway server.
type GatewayConfig struct {
	Listen         string        `mapstructure:"listen"`
	Network        string        `mapstructure:"network"`
	RPCURL         string        `mapstructure:"rpc_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Enoki   EnokiConfig   `mapstructure:"enoki"`
	Sponsor SponsorConfig `mapstructure:"sponsor"`
	Log     LogConfig     `mapstructure:"log"`
}

// EnokiConfig locates the proving API.
type EnokiConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// SponsorConfig holds the sponsor key and spending limits. The key is either
// a base64 secret or a keystore entry.
type SponsorConfig struct {
	Secret          string        `mapstructure:"secret"`
	Keystore        string        `mapstructure:"keystore"`
	Key             string        `mapstructure:"key"`
	Budget          uint64        `mapstructure:"budget"`
	TotalBudget     uint64        `mapstructure:"total_budget"`
	CoinLease       time.Duration `mapstructure:"coin_lease"`
	AllowedPackages []string      `mapstructure:"allowed_packages"`
}

// SetGatewayDefaults registers every gateway key with its default.
func SetGatewayDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("network", "testnet")
	v.SetDefault("rpc_url", "https://fullnode.testnet.sui.io:443")
	v.SetDefault("request_timeout", 60*time.Second)

	v.SetDefault("enoki.url", "https://api.enoki.mystenlabs.com")
	v.SetDefault("enoki.api_key", "")

	v.SetDefault("sponsor.secret", "")
	v.SetDefault("sponsor.keystore", "")
	v.SetDefault("sponsor.key", "")
	v.SetDefault("sponsor.budget", 50_000_000)
	v.SetDefault("sponsor.total_budget", 0)
	v.SetDefault("sponsor.coin_lease", time.Minute)
	v.SetDefault("sponsor.allowed_packages", []string{
		"0x781ebcf6049b015b991983a0db5e1a5aaad673ad68ee18ab8f94e45a073bea4f",
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadGatewayConfig reads the gateway configuration from defaults, the
// optional config file and ZKPASS_GATEWAY_* environment variables.
func LoadGatewayConfig(v *viper.Viper, file string) (GatewayConfig, error) {
	SetGatewayDefaults(v)
	if err := readInto(v, GatewayEnvPrefix, file); err != nil {
		return GatewayConfig{}, err
	}
	var cfg GatewayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return GatewayConfig{}, errors.Wrap(err, "decode gateway config")
	}
	if cfg.Sponsor.Secret == "" && cfg.Sponsor.Keystore == "" {
		return GatewayConfig{}, errors.New("sponsor.secret or sponsor.keystore is required")
	}
	return cfg, nil
}
