package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// Environment constants
	Production  = "production"
	Development = "development"

	SubmitterRPC     = "rpc"
	SubmitterRelayer = "relayer"

	StorageTypeBadger   = "badger"
	StorageTypePostgres = "postgres"
	StorageTypeConsul   = "consul"
	StorageTypeNone     = "none"

	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"

	defaultChain               = "arbitrum"
	defaultTarget              = "0xa2A7cD4302836767D194e2321E34B834494e0a28"
	defaultTxns                = 100
	defaultSubmitter           = SubmitterRPC
	defaultRPCURL              = "http://localhost:8545"
	defaultReceiptPollInterval = time.Second
	defaultStorageType         = StorageTypeBadger
	defaultDBPath              = "db"
	defaultOutputFormat        = FormatText
	defaultConsulPrefix        = "tps_reporter/"

	EnvConfigFile = "TPS_CONFIG_FILE"
)

type Config struct {
	Consul *ConsulConfig `mapstructure:"consul"`
	NATs   *NATsConfig   `mapstructure:"nats"`

	Environment string `mapstructure:"environment"`

	// Benchmark defaults, overridable by CLI flags
	Chain     string            `mapstructure:"chain"`
	Target    string            `mapstructure:"target"`
	Txns      int               `mapstructure:"txns"`
	Contracts map[string]string `mapstructure:"contracts"`

	Submitter           string        `mapstructure:"submitter"`
	RelayerAccessKey    string        `mapstructure:"relayer_access_key"`
	RPCURL              string        `mapstructure:"rpc_url"`
	ConfirmTimeout      time.Duration `mapstructure:"confirm_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`

	// Run history storage
	StorageType    string `mapstructure:"storage_type"`
	DBPath         string `mapstructure:"db_path"`
	BadgerPassword string `mapstructure:"badger_password"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`

	OutputFile   string `mapstructure:"output_file"`
	OutputFormat string `mapstructure:"output_format"`
}

type ConsulConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
	Prefix   string `mapstructure:"prefix"`
}

type NATsConfig struct {
	URL      string     `mapstructure:"url"`
	Username string     `mapstructure:"username"`
	Password string     `mapstructure:"password"`
	TLS      *TLSConfig `mapstructure:"tls"`

	// PublishRuns enqueues every completed run record on JetStream.
	PublishRuns bool `mapstructure:"publish_runs"`
}

type TLSConfig struct {
	ClientCert string `mapstructure:"client_cert"`
	ClientKey  string `mapstructure:"client_key"`
	CACert     string `mapstructure:"ca_cert"`
}

var (
	app *Config
	mu  sync.RWMutex
)

func initConfig() error {
	// env
	viper.SetEnvPrefix("TPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// set env config file
	configFile := os.Getenv(EnvConfigFile)
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/tps-reporter/")
		viper.AddConfigPath("$HOME/.tps-reporter/")
	}

	if err := viper.ReadInConfig(); err != nil {
		// A benchmark can run on flags and env alone.
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("viper read config: %w", err)
	}

	return nil
}

// setDefaults registers defaults with viper so that values present in a config
// file, zero included, reach validation unchanged.
func setDefaults() {
	viper.SetDefault("environment", Development)
	viper.SetDefault("chain", defaultChain)
	viper.SetDefault("target", defaultTarget)
	viper.SetDefault("txns", defaultTxns)
	viper.SetDefault("submitter", defaultSubmitter)
	viper.SetDefault("rpc_url", defaultRPCURL)
	viper.SetDefault("receipt_poll_interval", defaultReceiptPollInterval)
	viper.SetDefault("storage_type", defaultStorageType)
	viper.SetDefault("db_path", defaultDBPath)
	viper.SetDefault("output_format", defaultOutputFormat)
}

func SetEnvConfigPath(configPath string) {
	if configPath != "" {
		os.Setenv(EnvConfigFile, configPath)
	}
}

func LoadConfig() (*Config, error) {
	setDefaults()

	var cfg Config
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	setConfig(&cfg)
	return &cfg, nil
}

func Load() (*Config, error) {
	if err := initConfig(); err != nil {
		return nil, err
	}
	return LoadConfig()
}

// Validate checks enumerated settings. It is also applied after CLI flag overrides.
func Validate(cfg *Config) error {
	if err := validateEnvironment(cfg.Environment); err != nil {
		return err
	}
	if err := oneOf("submitter", cfg.Submitter, SubmitterRPC, SubmitterRelayer); err != nil {
		return err
	}
	if err := oneOf("storage_type", cfg.StorageType, StorageTypeBadger, StorageTypePostgres, StorageTypeConsul, StorageTypeNone); err != nil {
		return err
	}
	if err := oneOf("output_format", cfg.OutputFormat, FormatText, FormatJSON, FormatYAML); err != nil {
		return err
	}
	if cfg.Txns < 1 {
		return fmt.Errorf("txns must be at least 1, got %d", cfg.Txns)
	}
	if cfg.StorageType == StorageTypePostgres && cfg.PostgresDSN == "" {
		return fmt.Errorf("postgres_dsn is required when storage_type is %s", StorageTypePostgres)
	}
	if cfg.Submitter == SubmitterRelayer && (cfg.NATs == nil || cfg.NATs.URL == "") {
		return fmt.Errorf("nats.url is required when submitter is %s", SubmitterRelayer)
	}
	return nil
}

func validateEnvironment(environment string) error {
	validEnvironments := []string{Production, Development}

	if !slices.Contains(validEnvironments, environment) {
		return fmt.Errorf("invalid environment '%s'. Must be one of: %s", environment, strings.Join(validEnvironments, ", "))
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s '%s'. Must be one of: %s", name, value, strings.Join(allowed, ", "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = Development
	}
	cfg.Chain = normalizeChain(cfg.Chain)
	if cfg.Chain == "" {
		cfg.Chain = defaultChain
	}
	if cfg.Target == "" {
		cfg.Target = defaultTarget
	}
	if cfg.Submitter == "" {
		cfg.Submitter = defaultSubmitter
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = defaultRPCURL
	}
	if cfg.ReceiptPollInterval == 0 {
		cfg.ReceiptPollInterval = defaultReceiptPollInterval
	}
	if cfg.StorageType == "" {
		cfg.StorageType = defaultStorageType
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	if cfg.Consul != nil && cfg.Consul.Prefix == "" {
		cfg.Consul.Prefix = defaultConsulPrefix
	}
}

func setConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	app = cfg
}

// GetConfig returns the in-memory application configuration.
// It exits the process if the configuration has not been loaded yet.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if app == nil {
		logger.Fatal("configuration not loaded", nil)
	}
	return app
}

// Update applies the provided function while holding the configuration write lock.
// It panics if the configuration has not been loaded yet.
func Update(fn func(cfg *Config)) {
	mu.Lock()
	defer mu.Unlock()
	if app == nil {
		panic("configuration not loaded")
	}
	fn(app)
}

// ContractFor returns the configured mint contract override for chain, matching
// chain names case-insensitively. Empty when none is set.
func (c *Config) ContractFor(chain string) string {
	if addr, ok := c.Contracts[normalizeChain(chain)]; ok {
		return addr
	}
	for name, addr := range c.Contracts {
		if strings.EqualFold(name, chain) {
			return addr
		}
	}
	return ""
}

// SetContract records a contract override for chain under its normalized name.
func (c *Config) SetContract(chain, address string) {
	if c.Contracts == nil {
		c.Contracts = make(map[string]string)
	}
	c.Contracts[normalizeChain(chain)] = address
}

func normalizeChain(chain string) string {
	return strings.ToLower(strings.TrimSpace(chain))
}

func Environment() string {
	return GetConfig().Environment
}

func IsProduction() bool {
	return strings.EqualFold(Environment(), Production)
}
