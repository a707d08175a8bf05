package liquibase

import "sort"

// Global attribute keys as Liquibase spells them on its command line.
const (
	KeyLiquibase              = "liquibase"
	KeyChangeLogFile          = "changeLogFile"
	KeyURL                    = "url"
	KeyUsername               = "username"
	KeyPassword               = "password"
	KeyClasspath              = "classpath"
	KeyDefaultSchemaName      = "defaultSchemaName"
	KeyDefaultCatalogName     = "defaultCatalogName"
	KeyLogLevel               = "logLevel"
	KeyLiquibaseProLicenseKey = "liquibaseProLicenseKey"
	KeyReferenceURL           = "referenceUrl"
	KeyReferenceUsername      = "referenceUsername"
	KeyReferencePassword      = "referencePassword"
)

// Config holds the global attributes passed to every Liquibase invocation.
// An empty field is treated as absent and is never serialised.
type Config struct {
	// Liquibase is the path to the Liquibase executable.
	Liquibase string `json:"liquibase,omitempty" yaml:"liquibase,omitempty"`

	// ChangeLogFile is the root changelog Liquibase reads.
	ChangeLogFile string `json:"changeLogFile,omitempty" yaml:"changeLogFile,omitempty"`

	// URL is the JDBC connection URL of the target database.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Classpath points at the JDBC driver jar(s).
	Classpath string `json:"classpath,omitempty" yaml:"classpath,omitempty"`

	DefaultSchemaName  string `json:"defaultSchemaName,omitempty" yaml:"defaultSchemaName,omitempty"`
	DefaultCatalogName string `json:"defaultCatalogName,omitempty" yaml:"defaultCatalogName,omitempty"`

	// LogLevel is forwarded to Liquibase and also gates this package's Logger.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	LiquibaseProLicenseKey string `json:"liquibaseProLicenseKey,omitempty" yaml:"liquibaseProLicenseKey,omitempty"`

	// Reference database, used by diff, diffChangeLog and snapshotReference.
	ReferenceURL      string `json:"referenceUrl,omitempty" yaml:"referenceUrl,omitempty"`
	ReferenceUsername string `json:"referenceUsername,omitempty" yaml:"referenceUsername,omitempty"`
	ReferencePassword string `json:"referencePassword,omitempty" yaml:"referencePassword,omitempty"`

	// Extra holds any other global flag (contexts, labels, logFile, ...).
	// Typed fields take precedence over an Extra entry with the same key.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (c Config) fields() map[string]string {
	return map[string]string{
		KeyLiquibase:              c.Liquibase,
		KeyChangeLogFile:          c.ChangeLogFile,
		KeyURL:                    c.URL,
		KeyUsername:               c.Username,
		KeyPassword:               c.Password,
		KeyClasspath:              c.Classpath,
		KeyDefaultSchemaName:      c.DefaultSchemaName,
		KeyDefaultCatalogName:     c.DefaultCatalogName,
		KeyLogLevel:               c.LogLevel,
		KeyLiquibaseProLicenseKey: c.LiquibaseProLicenseKey,
		KeyReferenceURL:           c.ReferenceURL,
		KeyReferenceUsername:      c.ReferenceUsername,
		KeyReferencePassword:      c.ReferencePassword,
	}
}

// Attributes returns every present attribute keyed by its flag name,
// including the executable path under KeyLiquibase.
func (c Config) Attributes() map[string]string {
	attrs := make(map[string]string, len(c.Extra)+13)
	for k, v := range c.Extra {
		if v != "" {
			attrs[k] = v
		}
	}
	for k, v := range c.fields() {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}

// Get returns the attribute stored under key and whether it is present.
func (c Config) Get(key string) (string, bool) {
	v, ok := c.Attributes()[key]
	return v, ok
}

// Keys returns the present attribute keys in lexicographic order.
func (c Config) Keys() []string {
	attrs := c.Attributes()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of c overlaid with every present field of over.
// Values in over always win; Extra maps are merged key by key.
func (c Config) Merge(over Config) Config {
	out := c
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.Liquibase, over.Liquibase)
	pick(&out.ChangeLogFile, over.ChangeLogFile)
	pick(&out.URL, over.URL)
	pick(&out.Username, over.Username)
	pick(&out.Password, over.Password)
	pick(&out.Classpath, over.Classpath)
	pick(&out.DefaultSchemaName, over.DefaultSchemaName)
	pick(&out.DefaultCatalogName, over.DefaultCatalogName)
	pick(&out.LogLevel, over.LogLevel)
	pick(&out.LiquibaseProLicenseKey, over.LiquibaseProLicenseKey)
	pick(&out.ReferenceURL, over.ReferenceURL)
	pick(&out.ReferenceUsername, over.ReferenceUsername)
	pick(&out.ReferencePassword, over.ReferencePassword)

	out.Extra = nil
	if len(c.Extra) > 0 || len(over.Extra) > 0 {
		out.Extra = make(map[string]string, len(c.Extra)+len(over.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
		for k, v := range over.Extra {
			if v != "" {
				out.Extra[k] = v
			}
		}
	}
	return out
}

// clone returns a deep copy so callers cannot mutate a facade's Extra map.
func (c Config) clone() Config {
	return Config{}.Merge(c)
}
