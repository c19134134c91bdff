package mt940

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
)

func init() {
	color.NoColor = true
	root.Init()
	root.Cmd.AddCommand(Cmd)
}

const statement = `{1:F01BANKDEFFAXXX0000000000}{2:I940BANKDEFFXXXXN}{4:
:20:CLI1
:25:BANKDEFF/DE89370400440532013000
:28C:1/1
:60F:C240306EUR100,00
:61:240306C25,00NTRFREF
:62F:C240306EUR125,00
-}
`

func TestMT940Command(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "log:\n  level: error\nstore:\n  driver: memory\ningest:\n  stability_window: 0s\nmt940:\n  base_dir: " + filepath.Join(dir, "mt940") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	inbox := filepath.Join(dir, "mt940", "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "day.sta"), []byte(statement), 0o644))

	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetArgs([]string{"--config", cfgPath, "mt940"})
	require.NoError(t, root.Cmd.Execute())

	assert.Contains(t, out.String(), "MT940 poll: 1 discovered, 1 archived")
	assert.Contains(t, out.String(), "IMPORTED processed=1 failed=0")
}
