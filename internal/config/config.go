// Package config loads the process configuration: process environment,
// then a discovered config file, then built-in defaults, validated
// eagerly so failures surface before any I/O.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

// Config is the effective, validated configuration for one CLI
// invocation.
type Config struct {
	ActiveSite string `validate:"required"`
	Env        string

	OracleUsername string `validate:"required"`
	OraclePassword string `validate:"required"`
	OraclePort     int
	OracleService  string
	OracleDSN      string
	OracleJDBCURL  string

	SiteHost                 string
	SiteName                 string
	SiteShipFromName         string
	SiteShipFromAddress      string
	SiteShipFromCityStateZip string

	DBPoolMaxSize             int
	DBPoolConnTimeoutMS       int
	DBPoolValidationTimeoutMS int

	PrinterRoutingFile      string
	PrinterInventoryFile    string
	PrinterDefaultID        string
	PrinterForceID          string
	PrinterConnectTimeoutMS int
	PrinterIOTimeoutMS      int
	PrinterRetryMax         int
	PrinterRetryBaseMS      int

	SkuMatrixFile      string
	LocationMatrixFile string
	LabelTemplateFile  string
	OutputDir          string
	CheckpointDir      string
}

// Source is the minimal environment-lookup seam Load depends on, so
// tests can supply a fake environment instead of process env vars.
type Source interface {
	Getenv(key string) string
}

type osSource struct{}

func (osSource) Getenv(key string) string { return os.Getenv(key) }

// fileSource overlays file-discovered KEY=VALUE pairs under an
// underlying Source, giving process env precedence.
type fileSource struct {
	env  Source
	file map[string]string
}

func (f fileSource) Getenv(key string) string {
	if v := f.env.Getenv(key); v != "" {
		return v
	}
	return f.file[key]
}

// Load builds the effective Config: process
// env > discovered config file > built-in defaults, then validates
// required keys are present before returning.
func Load() (*Config, error) {
	return LoadFrom(osSource{})
}

// LoadFrom is Load with an explicit environment Source, and explicit
// config-file discovery rooted at the current working directory.
func LoadFrom(env Source) (*Config, error) {
	src := env
	if path := discoverConfigFile(env); path != "" {
		kv, err := parseEnvFile(path)
		if err != nil {
			return nil, apperr.ConfigError("failed to parse config file " + path).Wrap(err)
		}
		src = fileSource{env: env, file: kv}
	}
	return build(src)
}

func build(src Source) (*Config, error) {
	site := strings.TrimSpace(src.Getenv("ACTIVE_SITE"))
	envTag := firstNonEmpty(src.Getenv("WMS_ENV"), src.Getenv("ACTIVE_ENV"), "PROD")

	cfg := &Config{
		ActiveSite: site,
		Env:        envTag,

		OracleUsername: src.Getenv("ORACLE_USERNAME"),
		OraclePassword: src.Getenv("ORACLE_PASSWORD"),
		OraclePort:     intOr(src.Getenv("ORACLE_PORT"), 1521),
		OracleService:  firstNonEmpty(src.Getenv("ORACLE_SERVICE"), "WMSP"),
		OracleDSN:      src.Getenv("ORACLE_DSN"),
		OracleJDBCURL:  src.Getenv("ORACLE_JDBC_URL"),

		SiteHost:                 siteScopedHost(src, site, envTag),
		SiteName:                 src.Getenv("SITE_" + site + "_NAME"),
		SiteShipFromName:         src.Getenv("SITE_" + site + "_SHIP_FROM_NAME"),
		SiteShipFromAddress:      src.Getenv("SITE_" + site + "_SHIP_FROM_ADDRESS"),
		SiteShipFromCityStateZip: src.Getenv("SITE_" + site + "_SHIP_FROM_CITY_STATE_ZIP"),

		DBPoolMaxSize:             intOr(src.Getenv("DB_POOL_MAX_SIZE"), 5),
		DBPoolConnTimeoutMS:       intOr(src.Getenv("DB_POOL_CONN_TIMEOUT_MS"), 3000),
		DBPoolValidationTimeoutMS: intOr(src.Getenv("DB_POOL_VALIDATION_TIMEOUT_MS"), 2000),

		PrinterRoutingFile:      src.Getenv("PRINTER_ROUTING_FILE"),
		PrinterInventoryFile:    src.Getenv("PRINTER_INVENTORY_FILE"),
		PrinterDefaultID:        src.Getenv("PRINTER_DEFAULT_ID"),
		PrinterForceID:          src.Getenv("PRINTER_FORCE_ID"),
		PrinterConnectTimeoutMS: intOr(src.Getenv("PRINTER_CONNECT_TIMEOUT_MS"), 5000),
		PrinterIOTimeoutMS:      intOr(src.Getenv("PRINTER_IO_TIMEOUT_MS"), 10000),
		PrinterRetryMax:         intOr(src.Getenv("PRINTER_RETRY_MAX"), 3),
		PrinterRetryBaseMS:      intOr(src.Getenv("PRINTER_RETRY_BASE_MS"), 1000),

		SkuMatrixFile:      firstNonEmpty(src.Getenv("SKU_MATRIX_FILE"), "./config/sku-matrix.csv"),
		LocationMatrixFile: firstNonEmpty(src.Getenv("LOCATION_MATRIX_FILE"), "./config/location-matrix.csv"),
		LabelTemplateFile:  firstNonEmpty(src.Getenv("LABEL_TEMPLATE_FILE"), "./config/label-template.zpl"),
		OutputDir:          firstNonEmpty(src.Getenv("OUTPUT_DIR"), "./output"),
		CheckpointDir:      firstNonEmpty(src.Getenv("CHECKPOINT_DIR"), "./checkpoints"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validatorInstance = validator.New()

func validate(cfg *Config) error {
	if err := validatorInstance.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			keys := map[string]string{
				"ActiveSite":     "ACTIVE_SITE",
				"OracleUsername": "ORACLE_USERNAME",
				"OraclePassword": "ORACLE_PASSWORD",
			}
			key := verrs[0].StructField()
			if k, ok := keys[key]; ok {
				key = k
			}
			return apperr.ConfigError("missing required configuration key: " + key)
		}
		return apperr.ConfigError("invalid configuration").Wrap(err)
	}
	return nil
}

func siteScopedHost(src Source, site, envTag string) string {
	if v := src.Getenv("SITE_" + site + "_" + envTag + "_HOST"); v != "" {
		return v
	}
	return src.Getenv("SITE_" + site + "_HOST")
}

func intOr(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// discoverConfigFile checks WMS_CONFIG_FILE first, then a fixed list
// of relative paths.
func discoverConfigFile(env Source) string {
	if explicit := env.Getenv("WMS_CONFIG_FILE"); explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		"./wms-tags.env",
		"./.env",
		"./config/wms-tags.env",
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "wms-tags.env"),
			filepath.Join(dir, ".env"),
			filepath.Join(dir, "config", "wms-tags.env"),
		)
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// parseEnvFile reads simple KEY=VALUE lines, skipping blanks and lines
// starting with '#'.
func parseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		val = strings.Trim(val, `"'`)
		out[key] = val
	}
	return out, scanner.Err()
}

// redactedKeyFragments mark env-surface keys whose value is secret.
var redactedKeyFragments = []string{"PASSWORD", "SECRET"}

// Redacted renders the effective configuration as KEY=VALUE lines with
// secrets masked, for the `config` CLI subcommand.
func (c *Config) Redacted() map[string]string {
	raw := map[string]string{
		"ACTIVE_SITE":                   c.ActiveSite,
		"WMS_ENV":                       c.Env,
		"ORACLE_USERNAME":               c.OracleUsername,
		"ORACLE_PASSWORD":               c.OraclePassword,
		"ORACLE_PORT":                   strconv.Itoa(c.OraclePort),
		"ORACLE_SERVICE":                c.OracleService,
		"ORACLE_DSN":                    c.OracleDSN,
		"ORACLE_JDBC_URL":               c.OracleJDBCURL,
		"SITE_HOST":                     c.SiteHost,
		"DB_POOL_MAX_SIZE":              strconv.Itoa(c.DBPoolMaxSize),
		"DB_POOL_CONN_TIMEOUT_MS":       strconv.Itoa(c.DBPoolConnTimeoutMS),
		"DB_POOL_VALIDATION_TIMEOUT_MS": strconv.Itoa(c.DBPoolValidationTimeoutMS),
		"PRINTER_ROUTING_FILE":          c.PrinterRoutingFile,
		"PRINTER_INVENTORY_FILE":        c.PrinterInventoryFile,
		"PRINTER_DEFAULT_ID":            c.PrinterDefaultID,
		"PRINTER_FORCE_ID":              c.PrinterForceID,
		"PRINTER_CONNECT_TIMEOUT_MS":    strconv.Itoa(c.PrinterConnectTimeoutMS),
		"PRINTER_IO_TIMEOUT_MS":         strconv.Itoa(c.PrinterIOTimeoutMS),
		"PRINTER_RETRY_MAX":             strconv.Itoa(c.PrinterRetryMax),
		"PRINTER_RETRY_BASE_MS":         strconv.Itoa(c.PrinterRetryBaseMS),
		"SKU_MATRIX_FILE":               c.SkuMatrixFile,
		"LOCATION_MATRIX_FILE":          c.LocationMatrixFile,
		"LABEL_TEMPLATE_FILE":           c.LabelTemplateFile,
		"OUTPUT_DIR":                    c.OutputDir,
		"CHECKPOINT_DIR":                c.CheckpointDir,
	}
	for key, value := range raw {
		if value == "" {
			continue
		}
		for _, frag := range redactedKeyFragments {
			if strings.Contains(key, frag) {
				raw[key] = "********"
				break
			}
		}
	}
	return raw
}
