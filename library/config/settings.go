package config

import (
	"fmt"
	"strings"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
)

// Getter retrieves raw configuration values by dotted key path.
type Getter func(key string) any

// Settings captures endpoint configuration of every storage backend.
type Settings struct {
	HTTPTimeout time.Duration
	Arweave     ArweaveSettings
	Aws         AwsSettings
	Ipfs        GatewaySettings
	Pinata      GatewaySettings
	NftStorage  GatewaySettings
}

// ArweaveSettings configures the arweave node, gateway and wallet.
type ArweaveSettings struct {
	Node       string
	Gateway    string
	WalletFile string
}

// AwsSettings configures the s3 endpoint.
type AwsSettings struct {
	Endpoint string
	Region   string
}

// GatewaySettings configures an HTTP API and the gateway used to build links.
type GatewaySettings struct {
	API     string
	Gateway string
}

// LoadSettingsFromConfig reads the shared configuration and applies defaults.
func LoadSettingsFromConfig() Settings {
	return LoadSettings(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// LoadSettings reads settings through get and applies defaults.
func LoadSettings(get Getter) Settings {
	return Settings{
		HTTPTimeout: time.Duration(intValue(get, "settings.http.timeout_seconds", 300)) * time.Second,
		Arweave: ArweaveSettings{
			Node:       stringValue(get, "settings.arweave.node", "https://arweave.net"),
			Gateway:    stringValue(get, "settings.arweave.gateway", "https://arweave.net"),
			WalletFile: stringValue(get, "settings.arweave.wallet_file", ""),
		},
		Aws: AwsSettings{
			Endpoint: stringValue(get, "settings.aws.endpoint", "s3.amazonaws.com"),
			Region:   stringValue(get, "settings.aws.region", "us-east-1"),
		},
		Ipfs: GatewaySettings{
			API:     stringValue(get, "settings.ipfs.api", "https://ipfs.infura.io:5001"),
			Gateway: stringValue(get, "settings.ipfs.gateway", "https://ipfs.io"),
		},
		Pinata: GatewaySettings{
			API:     stringValue(get, "settings.pinata.api", "https://api.pinata.cloud"),
			Gateway: stringValue(get, "settings.pinata.gateway", "https://ipfs.io"),
		},
		NftStorage: GatewaySettings{
			API:     stringValue(get, "settings.nft_storage.api", "https://api.nft.storage"),
			Gateway: stringValue(get, "settings.nft_storage.gateway", "https://nftstorage.link"),
		},
	}
}

// stringValue reads a trimmed string with a default fallback.
func stringValue(get Getter, key, def string) string {
	v, ok := get(key).(string)
	if !ok {
		return def
	}
	if v = strings.TrimSpace(v); v == "" {
		return def
	}

	return v
}

// intValue reads a positive int with a default fallback.
func intValue(get Getter, key string, def int) int {
	var parsed int
	switch v := get(key).(type) {
	case int:
		parsed = v
	case int64:
		parsed = int(v)
	case float64:
		parsed = int(v)
	case string:
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &parsed); err != nil {
			return def
		}
	default:
		return def
	}

	if parsed <= 0 {
		return def
	}
	return parsed
}
