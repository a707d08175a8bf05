package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	liquibase "github.com/bcomnes/goliquibase"
)

// fileConfig is the on-disk configuration: a native connection string plus
// any Liquibase global attribute.
type fileConfig struct {
	Conn             string `json:"conn,omitempty" yaml:"conn,omitempty"`
	liquibase.Config `yaml:",inline"`
}

// loadConfig decodes a JSON (.json) or YAML (anything else) config file.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// loadEnv loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. An explicit path must exist;
// the implicit ".env" is optional.
func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// resolveConn turns a connection string into connection attributes. JDBC
// URLs are passed through untouched; anything else goes to the driver's
// native parser.
func resolveConn(d *Driver, conn string) (liquibase.Config, error) {
	if strings.HasPrefix(conn, "jdbc:") {
		return liquibase.Config{URL: conn}, nil
	}
	return d.Resolve(conn)
}

// firstNonEmpty returns the first non-empty string in the provided list.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
