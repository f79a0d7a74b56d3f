// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Protocol  ProtocolConfig  `mapstructure:"protocol"`
	Market    MarketConfig    `mapstructure:"market"`
	Target    TargetConfig    `mapstructure:"target"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// ProtocolConfig holds lending protocol contract addresses and parameters.
type ProtocolConfig struct {
	LendingPoolAddress string `mapstructure:"lending_pool_address"`
	PriceOracleAddress string `mapstructure:"price_oracle_address"`
	CloseFactorBps     uint64 `mapstructure:"close_factor_bps"` // 4-decimal fraction, 5000 = 50%
}

// MarketConfig holds constant-product market contract addresses.
type MarketConfig struct {
	FactoryAddress string `mapstructure:"factory_address"`
}

// TargetConfig pins the single position the engine operates on.
// All values are fixed at construction; there is no runtime discovery.
type TargetConfig struct {
	User            string  `mapstructure:"user"`
	CollateralAsset string  `mapstructure:"collateral_asset"`
	DebtAsset       string  `mapstructure:"debt_asset"`
	BorrowAsset     string  `mapstructure:"borrow_asset"` // flash-borrowed leg, typically WETH
	Initiator       string  `mapstructure:"initiator"`    // receives the settled profit
	WrappedNative   string  `mapstructure:"wrapped_native"`
	MinProfit       float64 `mapstructure:"min_profit"` // in borrow-asset units, reporting threshold only
}

// LendingPoolAddressHex returns the lending pool address as common.Address.
func (c *ProtocolConfig) LendingPoolAddressHex() common.Address {
	return common.HexToAddress(c.LendingPoolAddress)
}

// PriceOracleAddressHex returns the oracle address as common.Address.
func (c *ProtocolConfig) PriceOracleAddressHex() common.Address {
	return common.HexToAddress(c.PriceOracleAddress)
}

// FactoryAddressHex returns the pair factory address as common.Address.
func (c *MarketConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// UserHex returns the target user as common.Address.
func (c *TargetConfig) UserHex() common.Address {
	return common.HexToAddress(c.User)
}

// CollateralAssetHex returns the collateral asset as common.Address.
func (c *TargetConfig) CollateralAssetHex() common.Address {
	return common.HexToAddress(c.CollateralAsset)
}

// DebtAssetHex returns the debt asset as common.Address.
func (c *TargetConfig) DebtAssetHex() common.Address {
	return common.HexToAddress(c.DebtAsset)
}

// BorrowAssetHex returns the flash-borrow asset as common.Address.
func (c *TargetConfig) BorrowAssetHex() common.Address {
	return common.HexToAddress(c.BorrowAsset)
}

// InitiatorHex returns the profit recipient as common.Address.
func (c *TargetConfig) InitiatorHex() common.Address {
	return common.HexToAddress(c.Initiator)
}

// WrappedNativeHex returns the wrapped native token as common.Address.
func (c *TargetConfig) WrappedNativeHex() common.Address {
	return common.HexToAddress(c.WrappedNative)
}

// MinProfitDecimal returns the profit threshold as decimal.Decimal.
func (c *TargetConfig) MinProfitDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfit)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("LIQ")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LIQ_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LIQ_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LIQ_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "LIQ_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "LIQ_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Protocol
	v.BindEnv("protocol.lending_pool_address", "LIQ_LENDING_POOL", "LENDING_POOL")
	v.BindEnv("protocol.price_oracle_address", "LIQ_PRICE_ORACLE", "PRICE_ORACLE")
	v.BindEnv("protocol.close_factor_bps", "LIQ_CLOSE_FACTOR_BPS")

	// Market
	v.BindEnv("market.factory_address", "LIQ_PAIR_FACTORY", "PAIR_FACTORY")

	// Target
	v.BindEnv("target.user", "LIQ_TARGET_USER")
	v.BindEnv("target.collateral_asset", "LIQ_COLLATERAL_ASSET")
	v.BindEnv("target.debt_asset", "LIQ_DEBT_ASSET")
	v.BindEnv("target.borrow_asset", "LIQ_BORROW_ASSET")
	v.BindEnv("target.initiator", "LIQ_INITIATOR")
	v.BindEnv("target.wrapped_native", "LIQ_WRAPPED_NATIVE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LIQ_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LIQ_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LIQ_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flash-liquidator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.read_timeout", "10s")
	v.SetDefault("ethereum.requests_per_sec", 10.0)

	// Aave V2 mainnet defaults
	v.SetDefault("protocol.lending_pool_address", "0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9")
	v.SetDefault("protocol.price_oracle_address", "0xA50ba011c48153De246E5192C8f9258A2ba79Ca9")
	v.SetDefault("protocol.close_factor_bps", 5000)

	// Uniswap V2 mainnet defaults
	v.SetDefault("market.factory_address", "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")

	// Target defaults: WETH as the flash-borrow leg
	v.SetDefault("target.borrow_asset", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("target.wrapped_native", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("target.min_profit", 0)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flash-liquidator")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Protocol.LendingPoolAddress) {
		return fmt.Errorf("invalid protocol.lending_pool_address: %s", c.Protocol.LendingPoolAddress)
	}
	if !common.IsHexAddress(c.Protocol.PriceOracleAddress) {
		return fmt.Errorf("invalid protocol.price_oracle_address: %s", c.Protocol.PriceOracleAddress)
	}
	if !common.IsHexAddress(c.Market.FactoryAddress) {
		return fmt.Errorf("invalid market.factory_address: %s", c.Market.FactoryAddress)
	}
	if c.Target.User != "" && !common.IsHexAddress(c.Target.User) {
		return fmt.Errorf("invalid target.user: %s", c.Target.User)
	}
	if c.Target.CollateralAsset != "" && !common.IsHexAddress(c.Target.CollateralAsset) {
		return fmt.Errorf("invalid target.collateral_asset: %s", c.Target.CollateralAsset)
	}
	if c.Target.DebtAsset != "" && !common.IsHexAddress(c.Target.DebtAsset) {
		return fmt.Errorf("invalid target.debt_asset: %s", c.Target.DebtAsset)
	}
	if c.Target.Initiator != "" && !common.IsHexAddress(c.Target.Initiator) {
		return fmt.Errorf("invalid target.initiator: %s", c.Target.Initiator)
	}
	if c.Protocol.CloseFactorBps == 0 || c.Protocol.CloseFactorBps > 10000 {
		return fmt.Errorf("protocol.close_factor_bps must be in (0, 10000]: %d", c.Protocol.CloseFactorBps)
	}
	return nil
}
