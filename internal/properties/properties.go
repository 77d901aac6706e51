package properties

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/spf13/viper"
)

// Configuration keys. Each one can be set from the environment variable
// listed in envBindings or from a command line flag bound onto the key.
const (
	KeyRootPath      = "root_path"
	KeyCollection    = "collection"
	KeyMaxCloudCover = "max_cloud_cover"
	KeyResolution    = "resolution"
	KeyThresholds    = "thresholds"
	KeyPC1Clamp      = "pc1_clamp"
	KeyWorkers       = "workers"
	KeyCatalogURL    = "catalog_url"
	KeyProcessURL    = "process_url"
	KeyTokenURL      = "token_url"
	KeyClientID      = "client_id"
	KeyClientSecret  = "client_secret"
	KeyFetchRetries  = "fetch_retries"
	KeyCacheMaxAge   = "cache_max_age"

	KeyDiscordErrorURL   = "discord_error_notification_url"
	KeyDiscordSuccessURL = "discord_success_notification_url"
)

var envBindings = map[string]string{
	KeyRootPath:          "ROOT_PATH",
	KeyCollection:        "RSEI_COLLECTION",
	KeyMaxCloudCover:     "RSEI_MAX_CLOUD_COVER",
	KeyResolution:        "RSEI_RESOLUTION",
	KeyThresholds:        "RSEI_THRESHOLDS",
	KeyPC1Clamp:          "RSEI_PC1_CLAMP",
	KeyWorkers:           "RSEI_WORKERS",
	KeyCatalogURL:        "COPERNICUS_CATALOG_URL",
	KeyProcessURL:        "COPERNICUS_PROCESS_URL",
	KeyTokenURL:          "COPERNICUS_TOKEN_URL",
	KeyClientID:          "COPERNICUS_CLIENT_ID",
	KeyClientSecret:      "COPERNICUS_CLIENT_SECRET",
	KeyFetchRetries:      "RSEI_FETCH_RETRIES",
	KeyCacheMaxAge:       "RSEI_CACHE_MAX_AGE",
	KeyDiscordErrorURL:   "DISCORD_ERROR_NOTIFICATION_URL",
	KeyDiscordSuccessURL: "DISCORD_SUCCESS_NOTIFICATION_URL",
}

func init() {
	Load()
}

// Load registers defaults and environment bindings on the global viper instance.
func Load() {
	viper.SetDefault(KeyRootPath, ".")
	viper.SetDefault(KeyCollection, "landsat-ot-l2")
	viper.SetDefault(KeyMaxCloudCover, 1.0)
	viper.SetDefault(KeyResolution, 30.0)
	viper.SetDefault(KeyThresholds, rsei.DefaultThresholds.String())
	viper.SetDefault(KeyPC1Clamp, rsei.DefaultPC1Clamp)
	viper.SetDefault(KeyWorkers, runtime.NumCPU())
	viper.SetDefault(KeyCatalogURL, "https://sh.dataspace.copernicus.eu/api/v1/catalog/1.0.0/search")
	viper.SetDefault(KeyProcessURL, "https://sh.dataspace.copernicus.eu/api/v1/process")
	viper.SetDefault(KeyTokenURL, "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token")
	viper.SetDefault(KeyFetchRetries, 10)
	viper.SetDefault(KeyCacheMaxAge, "720h")

	for key, env := range envBindings {
		_ = viper.BindEnv(key, env)
	}
}

func RootPath() string {
	return viper.GetString(KeyRootPath)
}

// Collection is the catalog collection scenes are searched in.
func Collection() string {
	return viper.GetString(KeyCollection)
}

// MaxCloudCover is the exclusive scene cloud cover ceiling in percent.
func MaxCloudCover() float64 {
	return viper.GetFloat64(KeyMaxCloudCover)
}

// Resolution is the pixel size in metres.
func Resolution() float64 {
	return viper.GetFloat64(KeyResolution)
}

func Thresholds() (rsei.Thresholds, error) {
	t, err := rsei.ParseThresholds(viper.GetString(KeyThresholds))
	if err != nil {
		return t, fmt.Errorf("%s: %w", KeyThresholds, err)
	}
	return t, nil
}

func PC1Clamp() float64 {
	return viper.GetFloat64(KeyPC1Clamp)
}

// Options assembles the index options from the configuration.
func Options() (rsei.Options, error) {
	t, err := Thresholds()
	if err != nil {
		return rsei.Options{}, err
	}
	return rsei.Options{Thresholds: t, PC1Clamp: PC1Clamp()}, nil
}

func Workers() int {
	return viper.GetInt(KeyWorkers)
}

func CatalogURL() string {
	return viper.GetString(KeyCatalogURL)
}

func ProcessURL() string {
	return viper.GetString(KeyProcessURL)
}

func TokenURL() string {
	return viper.GetString(KeyTokenURL)
}

// Credentials returns the comma separated client ids and secrets paired up.
func Credentials() ([][2]string, error) {
	ids := splitList(viper.GetString(KeyClientID))
	secrets := splitList(viper.GetString(KeyClientSecret))
	if len(ids) == 0 || len(secrets) == 0 || TokenURL() == "" {
		return nil, fmt.Errorf("missing required environment variables: COPERNICUS_CLIENT_ID, COPERNICUS_CLIENT_SECRET, or COPERNICUS_TOKEN_URL")
	}
	if len(ids) != len(secrets) {
		return nil, fmt.Errorf("mismatched number of client IDs and secrets")
	}
	out := make([][2]string, len(ids))
	for i := range ids {
		out[i] = [2]string{ids[i], secrets[i]}
	}
	return out, nil
}

func FetchRetries() int {
	return viper.GetInt(KeyFetchRetries)
}

func CacheMaxAge() string {
	return viper.GetString(KeyCacheMaxAge)
}

func DiscordErrorNotificationUrl() string {
	return viper.GetString(KeyDiscordErrorURL)
}

func DiscordSuccessNotificationUrl() string {
	return viper.GetString(KeyDiscordSuccessURL)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
