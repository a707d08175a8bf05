package liquibase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var e2eConfig = Config{
	Liquibase:     "/opt/liquibase/liquibase",
	URL:           "db://x",
	Username:      "u",
	Password:      "p",
	ChangeLogFile: "/a/b.xml",
	Classpath:     "/d.jar",
}

func TestBuildCommandLineStatus(t *testing.T) {
	cl, err := BuildCommandLine(e2eConfig, Status, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"/opt/liquibase/liquibase --changeLogFile=/a/b.xml --classpath=/d.jar --password=p --url=db://x --username=u status",
		cl.String())
	assert.Equal(t, "/opt/liquibase/liquibase", cl.Path)
	assert.Equal(t, Status, cl.Command)
	assert.Equal(t, "status", cl.Args[len(cl.Args)-1])
}

func TestBuildCommandLineParametersAreJSON(t *testing.T) {
	cl, err := BuildCommandLine(e2eConfig, Update, ParameterSet{
		"verbose": true,
		"count":   3,
		"tag":     "v1",
	})
	require.NoError(t, err)

	tail := cl.Tokens[len(cl.Tokens)-3:]
	assert.Equal(t, []string{`--count=3`, `--tag="v1"`, `--verbose=true`}, tail)

	// The process sees what a shell would have made of the tokens.
	assert.Equal(t, []string{`--count=3`, `--tag=v1`, `--verbose=true`}, cl.Args[len(cl.Args)-3:])
}

func TestBuildCommandLineOneTokenPerParameter(t *testing.T) {
	params := ParameterSet{"a": "1", "b": false, "c": 10, "d": "x y"}
	cl, err := BuildCommandLine(e2eConfig, Update, params)
	require.NoError(t, err)

	cmdIdx := indexOf(cl.Tokens, "update")
	require.GreaterOrEqual(t, cmdIdx, 0)
	after := cl.Tokens[cmdIdx+1:]
	assert.Len(t, after, len(params))
	for k := range params {
		n := 0
		for _, tok := range after {
			if strings.HasPrefix(tok, "--"+k+"=") {
				n++
			}
		}
		assert.Equal(t, 1, n, "expected one token for %s", k)
	}
}

func TestBuildCommandLineIsDeterministic(t *testing.T) {
	a := ParameterSet{}
	b := ParameterSet{}
	keys := []string{"zeta", "alpha", "mid"}
	for i, k := range keys {
		a[k] = i
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b[keys[i]] = i
	}
	clA, err := BuildCommandLine(e2eConfig, Update, a)
	require.NoError(t, err)
	clB, err := BuildCommandLine(e2eConfig, Update, b)
	require.NoError(t, err)

	assert.Equal(t, clA.String(), clB.String())
}

func TestBuildCommandLineCommandBeforeParameters(t *testing.T) {
	for _, cmd := range Commands() {
		cl, err := BuildCommandLine(e2eConfig, cmd, ParameterSet{"x": "y"})
		require.NoError(t, err)

		idx := indexOf(cl.Tokens, string(cmd))
		require.GreaterOrEqual(t, idx, 0, "command token missing for %s", cmd)
		assert.Equal(t, `--x="y"`, cl.Tokens[idx+1])
		assert.True(t, strings.HasPrefix(cl.String(), e2eConfig.Liquibase+" "))
	}
}

func TestBuildCommandLineGlobalValuesAreRaw(t *testing.T) {
	cfg := e2eConfig
	cfg.ChangeLogFile = `C:\Program Files\app\changelog.xml`
	cl, err := BuildCommandLine(cfg, Status, nil)
	require.NoError(t, err)

	assert.Contains(t, cl.Args, `--changeLogFile=C:\Program Files\app\changelog.xml`)
}

func TestBuildCommandLineRejectsUnknownCommand(t *testing.T) {
	_, err := BuildCommandLine(e2eConfig, Command("explode"), nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestBuildCommandLineRejectsUnencodableValue(t *testing.T) {
	_, err := BuildCommandLine(e2eConfig, Update, ParameterSet{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestEncodeValueKeepsHTMLCharacters(t *testing.T) {
	cl, err := BuildCommandLine(e2eConfig, Update, ParameterSet{"labels": "a&b<c"})
	require.NoError(t, err)
	assert.Contains(t, cl.Tokens, `--labels="a&b<c"`)
	assert.Contains(t, cl.Args, `--labels=a&b<c`)
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := e2eConfig
	cfg.ReferencePassword = "refpw"
	cfg.LiquibaseProLicenseKey = "key"
	cl, err := BuildCommandLine(cfg, Diff, nil)
	require.NoError(t, err)

	red := cl.Redacted()
	assert.NotContains(t, red, "=p ")
	assert.NotContains(t, red, "refpw")
	assert.NotContains(t, red, "=key")
	assert.Contains(t, red, "--password=*****")
	assert.Contains(t, cl.String(), "--password=p")
}

func TestRedactedMasksSecretExtraGlobals(t *testing.T) {
	cfg := e2eConfig
	cfg.Extra = map[string]string{
		"liquibaseHubApiKey": "hub-123",
		"hubConnectionToken": "tok-456",
		"sqlcmdDbPassword":   "sql-789",
		"defaultSchemaTitle": "visible",
	}
	cl, err := BuildCommandLine(cfg, Status, nil)
	require.NoError(t, err)

	red := cl.Redacted()
	for _, secret := range []string{"hub-123", "tok-456", "sql-789"} {
		assert.NotContains(t, red, secret)
	}
	assert.Contains(t, red, "--liquibaseHubApiKey=*****")
	assert.Contains(t, red, "--defaultSchemaTitle=visible")
}

func TestForwardedCommandLine(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		_, err := ForwardedCommandLine("/bundled", nil)
		assert.ErrorIs(t, err, ErrCallSignature)
	})

	t.Run("known command first", func(t *testing.T) {
		cl, err := ForwardedCommandLine("/bundled", []string{"status", "--verbose"})
		require.NoError(t, err)
		assert.Equal(t, "/bundled", cl.Path)
		assert.Equal(t, []string{"status", "--verbose"}, cl.Args)
		assert.Equal(t, Status, cl.Command)
	})

	t.Run("flag first", func(t *testing.T) {
		cl, err := ForwardedCommandLine("/bundled", []string{"--url=x", "update"})
		require.NoError(t, err)
		assert.Equal(t, "/bundled", cl.Path)
		assert.Equal(t, "/bundled --url=x update", cl.String())
	})

	t.Run("explicit executable", func(t *testing.T) {
		cl, err := ForwardedCommandLine("/bundled", []string{"/usr/local/bin/liquibase", "history"})
		require.NoError(t, err)
		assert.Equal(t, "/usr/local/bin/liquibase", cl.Path)
		assert.Equal(t, []string{"history"}, cl.Args)
	})
}

func indexOf(tokens []string, s string) int {
	for i, tok := range tokens {
		if tok == s {
			return i
		}
	}
	return -1
}
