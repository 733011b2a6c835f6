// Package zkconfig generates and reads the customer and merchant config
// files of the zkchannel client for a test network.
package zkconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/elementsproject/zkharness/log"
	"github.com/pelletier/go-toml/v2"
)

type Network string

const (
	NETWORK_SANDBOX Network = "sandbox"
	NETWORK_TESTNET Network = "testnet"
)

const (
	DefaultSelfDelay         = 120
	DefaultConfirmationDepth = 1
	DefaultTezosURI          = "http://localhost:20000"

	testnetKeyDir = "../../tezos-contract/pytezos-tests/sample_files"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case NETWORK_SANDBOX:
		return NETWORK_SANDBOX, nil
	case NETWORK_TESTNET:
		return NETWORK_TESTNET, nil
	}
	return "", fmt.Errorf("specified invalid 'network' argument %q. Values: '%s' or '%s'", s, NETWORK_SANDBOX, NETWORK_TESTNET)
}

// Accounts returns the tezos account of the customer and the merchant:
// a tezos-client alias on the sandbox, a key file on testnet.
func (n Network) Accounts() (customer, merchant interface{}) {
	switch n {
	case NETWORK_TESTNET:
		return filepath.Join(testnetKeyDir, "tz1iKxZpa5x1grZyN2Uw9gERXJJPMyG22Sqp.json"),
			filepath.Join(testnetKeyDir, "tz1bXwRiFvijKnZYUj9J53oYE3fFkMTWXqNx.json")
	default:
		return map[string]string{"alias": "alice"}, map[string]string{"alias": "bob"}
	}
}

// Paths are the file locations for one network below a config dir.
type Paths struct {
	ConfigDir      string
	CustomerConfig string
	CustomerDB     string
	MerchantConfig string
	MerchantDB     string
	// ArchiveDir holds the customer state snapshots.
	ArchiveDir string
}

func NewPaths(configDir string, n Network) Paths {
	return Paths{
		ConfigDir:      configDir,
		CustomerConfig: filepath.Join(configDir, fmt.Sprintf("Customer-%s.toml", n)),
		CustomerDB:     fmt.Sprintf("customer-%s.db", n),
		MerchantConfig: filepath.Join(configDir, fmt.Sprintf("Merchant-%s.toml", n)),
		MerchantDB:     fmt.Sprintf("merchant-%s.db", n),
		ArchiveDir:     filepath.Join(configDir, "temp"),
	}
}

type Database struct {
	Sqlite string `toml:"sqlite"`
}

type Service struct {
	Address     string `toml:"address"`
	PrivateKey  string `toml:"private_key"`
	Certificate string `toml:"certificate"`
}

type CustomerConfig struct {
	Database          Database    `toml:"database"`
	TrustCertificate  string      `toml:"trust_certificate"`
	TezosAccount      interface{} `toml:"tezos_account"`
	TezosURI          string      `toml:"tezos_uri"`
	SelfDelay         int64       `toml:"self_delay"`
	ConfirmationDepth int64       `toml:"confirmation_depth"`
}

type MerchantConfig struct {
	Database          Database    `toml:"database"`
	TezosAccount      interface{} `toml:"tezos_account"`
	TezosURI          string      `toml:"tezos_uri"`
	SelfDelay         int64       `toml:"self_delay"`
	ConfirmationDepth int64       `toml:"confirmation_depth"`
	Services          []Service   `toml:"service"`
}

// Params are the settings shared by both config files.
type Params struct {
	Network           Network
	TezosURI          string
	SelfDelay         int64
	ConfirmationDepth int64
}

func NewCustomerConfig(p Paths, params Params) *CustomerConfig {
	account, _ := params.Network.Accounts()
	return &CustomerConfig{
		Database:          Database{Sqlite: p.CustomerDB},
		TrustCertificate:  "localhost.crt",
		TezosAccount:      account,
		TezosURI:          params.TezosURI,
		SelfDelay:         params.SelfDelay,
		ConfirmationDepth: params.ConfirmationDepth,
	}
}

func NewMerchantConfig(p Paths, params Params) *MerchantConfig {
	_, account := params.Network.Accounts()
	return &MerchantConfig{
		Database:          Database{Sqlite: p.MerchantDB},
		TezosAccount:      account,
		TezosURI:          params.TezosURI,
		SelfDelay:         params.SelfDelay,
		ConfirmationDepth: params.ConfirmationDepth,
		Services: []Service{
			{Address: "::1", PrivateKey: "localhost.key", Certificate: "localhost.crt"},
			{Address: "127.0.0.1", PrivateKey: "localhost.key", Certificate: "localhost.crt"},
		},
	}
}

func write(path string, v interface{}) ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("toml.Marshal() %w", err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return nil, fmt.Errorf("WriteFile(%s) %w", path, err)
	}
	return data, nil
}

func WriteCustomer(path string, c *CustomerConfig) error {
	data, err := write(path, c)
	if err != nil {
		return err
	}
	log.Infof("-> Created customer config: %s", path)
	log.Debugf("============\n%s============", data)
	return nil
}

func WriteMerchant(path string, c *MerchantConfig) error {
	data, err := write(path, c)
	if err != nil {
		return err
	}
	log.Infof("-> Created merchant config: %s", path)
	log.Debugf("============\n%s============", data)
	return nil
}

// LoadCustomer reads a customer config file.
func LoadCustomer(path string) (*CustomerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c CustomerConfig
	err = toml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return &c, nil
}

// DatabasePath returns the customer database location. A relative
// sqlite path is relative to the directory of the config file.
func (c *CustomerConfig) DatabasePath(configPath string) (string, error) {
	if c.Database.Sqlite == "" {
		return "", fmt.Errorf("no sqlite database configured")
	}
	if filepath.IsAbs(c.Database.Sqlite) {
		return c.Database.Sqlite, nil
	}
	return filepath.Join(filepath.Dir(configPath), c.Database.Sqlite), nil
}
