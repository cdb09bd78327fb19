package relayer

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable the relayer needs to reach the DA chain,
// scope which contracts it watches, and pace both historical catch-up
// and live polling. Load reads it from the environment; Validate must
// be called before the relayer is started.
type Config struct {
	// DaProviderURL is the DA-chain RPC endpoint. A ws:// scheme enables
	// live block/log subscriptions; over http:// only one-shot calls
	// work and the subscription methods fail with
	// ErrSubscriptionsUnsupported, so the relayer cannot reach
	// live-follow.
	DaProviderURL string
	EthChainID    uint64

	EthV2ContractDeployment   uint64
	EthV2BlockCommitContract  common.Address
	EthV2ContractAddresses    []common.Address
	EthFinalityPeriod         uint64
	EthInitialSyncRefresh     time.Duration
	InitialSyncStep           uint64
	ReportProgressEveryNSteps uint64
	ProviderInterval          time.Duration

	ChainName string
	DataDir   string
	LogLevel  string
}

// Load reads relayer configuration from the environment. Every knob
// named in the contract-synchronization parameter table has a
// corresponding RELAYER_* variable; everything else falls back to a
// conservative default.
func Load() (*Config, error) {
	file, err := loadFileOverlay()
	if err != nil {
		return nil, err
	}

	addrs, err := parseAddressList(getEnv("RELAYER_ETH_V2_CONTRACT_ADDRESSES", file, ""))
	if err != nil {
		return nil, fmt.Errorf("RELAYER_ETH_V2_CONTRACT_ADDRESSES: %w", err)
	}

	cfg := &Config{
		DaProviderURL: getEnv("RELAYER_DA_PROVIDER_URL", file, ""),
		EthChainID:    getEnvUint64("RELAYER_ETH_CHAIN_ID", file, 1),

		EthV2ContractDeployment:   getEnvUint64("RELAYER_ETH_V2_CONTRACT_DEPLOYMENT", file, 0),
		EthV2BlockCommitContract:  common.HexToAddress(getEnv("RELAYER_ETH_V2_BLOCK_COMMIT_CONTRACT", file, "")),
		EthV2ContractAddresses:    addrs,
		EthFinalityPeriod:         getEnvUint64("RELAYER_ETH_FINALITY_PERIOD", file, 30),
		EthInitialSyncRefresh:     getEnvDuration("RELAYER_ETH_INITIAL_SYNC_REFRESH", file, 5*time.Second),
		InitialSyncStep:           getEnvUint64("RELAYER_INITIAL_SYNC_STEP", file, 1000),
		ReportProgressEveryNSteps: getEnvUint64("RELAYER_REPORT_PROGRESS_EVERY_N_BLOCKS", file, 500),
		ProviderInterval:          getEnvDuration("RELAYER_PROVIDER_INTERVAL", file, time.Second),

		ChainName: getEnv("RELAYER_CHAIN_NAME", file, "fuel"),
		DataDir:   getEnv("RELAYER_DATA_DIR", file, "./data"),
		LogLevel:  getEnv("RELAYER_LOG_LEVEL", file, "info"),
	}

	return cfg, nil
}

// loadFileOverlay reads RELAYER_CONFIG_FILE, if set, as a flat YAML
// map of lowercase option names (the RELAYER_ prefix dropped, e.g.
// "eth_finality_period") to string values. It sits underneath the
// environment: a key present in both loses to its env var.
func loadFileOverlay() (map[string]string, error) {
	path := os.Getenv("RELAYER_CONFIG_FILE")
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relayer config file %s: %w", path, err)
	}
	var overlay map[string]string
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("relayer config file %s: %w", path, err)
	}
	return overlay, nil
}

// Validate checks that every field Load cannot safely default is
// present and internally consistent. Call it after Load, before
// wiring the relayer together.
func (c *Config) Validate() error {
	var problems []string

	if c.DaProviderURL == "" {
		problems = append(problems, "RELAYER_DA_PROVIDER_URL is required")
	}
	if c.EthV2BlockCommitContract == (common.Address{}) {
		problems = append(problems, "RELAYER_ETH_V2_BLOCK_COMMIT_CONTRACT is required")
	}
	if len(c.EthV2ContractAddresses) == 0 {
		problems = append(problems, "RELAYER_ETH_V2_CONTRACT_ADDRESSES must list at least one address")
	}
	if c.InitialSyncStep == 0 {
		problems = append(problems, "RELAYER_INITIAL_SYNC_STEP must be greater than zero")
	}
	if c.EthInitialSyncRefresh <= 0 {
		problems = append(problems, "RELAYER_ETH_INITIAL_SYNC_REFRESH must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("relayer config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fileKey converts a RELAYER_* environment name into the overlay map's
// lowercase key, e.g. "RELAYER_ETH_FINALITY_PERIOD" -> "eth_finality_period".
func fileKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, "RELAYER_"))
}

func getEnv(key string, file map[string]string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := file[fileKey(key)]; ok && v != "" {
		return v
	}
	return def
}

func getEnvUint64(key string, file map[string]string, def uint64) uint64 {
	if v := getEnv(key, file, ""); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, file map[string]string, def time.Duration) time.Duration {
	if v := getEnv(key, file, ""); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseAddressList(v string) ([]common.Address, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("invalid address %q", p)
		}
		out = append(out, common.HexToAddress(p))
	}
	return out, nil
}
