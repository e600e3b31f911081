package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/nft-uploader/library/config"
	"github.com/Laisky/nft-uploader/library/wallet"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter = config.Getter

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateFlagConfig(get, &validationErrs)
	validateHTTPConfig(get, &validationErrs)
	validateArweaveConfig(get, &validationErrs)
	validateAwsConfig(get, &validationErrs)
	validateGatewayConfig(get, "settings.ipfs", &validationErrs)
	validateGatewayConfig(get, "settings.pinata", &validationErrs)
	validateGatewayConfig(get, "settings.nft_storage", &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateFlagConfig validates command line values shared by every upload command.
// Backend credential flags are left to the backend that consumes them.
func validateFlagConfig(get configGetter, errs *[]string) {
	validateOptionalOneOf(get, "env", wallet.Environments, errs)
	validateOptionalOneOf(get, "log-level", []string{"debug", "info", "warn", "error"}, errs)
	validateOptionalFlagURL(get, "rpc-url", errs)
}

// validateHTTPConfig validates the shared http client settings.
func validateHTTPConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.http.timeout_seconds", 1, errs)
}

// validateArweaveConfig validates arweave node and gateway endpoints.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateArweaveConfig(get configGetter, errs *[]string) {
	validateOptionalURL(get, "settings.arweave.node", errs)
	validateOptionalURL(get, "settings.arweave.gateway", errs)
	validateOptionalStringNonEmpty(get, "settings.arweave.wallet_file", errs)
}

// validateAwsConfig validates s3 endpoint settings.
// The endpoint is a bare host, not a URL.
func validateAwsConfig(get configGetter, errs *[]string) {
	validateOptionalHost(get, "settings.aws.endpoint", errs)
	validateOptionalStringNonEmpty(get, "settings.aws.region", errs)
}

// validateGatewayConfig validates the api and gateway URLs under prefix.
func validateGatewayConfig(get configGetter, prefix string, errs *[]string) {
	validateOptionalURL(get, prefix+".api", errs)
	validateOptionalURL(get, prefix+".gateway", errs)
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	if !isAbsoluteURL(trimmed) {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalFlagURL validates a flag holding an absolute URL.
// Flags default to the empty string, which means unset.
func validateOptionalFlagURL(get configGetter, key string, errs *[]string) {
	value, parseErr := parseStrictString(get(key))
	if parseErr != nil {
		return
	}

	if trimmed := strings.TrimSpace(value); trimmed != "" && !isAbsoluteURL(trimmed) {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalOneOf validates that a configured string key is one of allowed.
// It accepts a getter, the key, the allowed values, and an error collector pointer.
func validateOptionalOneOf(get configGetter, key string, allowed []string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, v := range allowed {
		if normalized == v {
			return
		}
	}

	appendValidationError(errs, "%s must be one of [%s]", key, strings.Join(allowed, ", "))
}

// validateOptionalHost validates an optionally configured host key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalHost(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	host, parseErr := parseStrictString(raw)
	if parseErr != nil || !isValidHost(host) {
		appendValidationError(errs, "%s must be a valid host", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
