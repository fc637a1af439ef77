package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

const (
	activeWIF = "5JYsrHMfTM2Hh3heyPMYvRpuu9gFhoAYghb71EZH7VRLQkHu3Bc"
	memoWIF   = "5JdeC9P7Pbd1uGdFVEsJ41EkEnADbbHGq6p1BwFxm6txNBsQnsw"
	memoVec   = "#FqMXi3bftzAKWoFmjBMxJ8VSx1NRJoHKa34s23czTXGSP6tWXXSm8PhwU1o7FPie6qo8dXHQRakQbp6jRg6Th2H6a8wHQ2krGKeQbqg5C461y7TqPukk74FNHnpRVoXUR"
	voteTrxID = "2072295d67761f9d4cf80d8cce52b0f35b382d1e"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "hive-tx: dev\n", out)
}

func TestKeys(t *testing.T) {
	setupHome(t)

	out, err := run(t, "", "keys", "login", "foo", "barman")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "active   STM87F7tN56tAUL2C6J9Gzi9HzgNpZdi6M2cLQo7TjDU5v178QsYA 5"))

	out, err = run(t, "", "keys", "public", memoWIF)
	require.NoError(t, err)
	assert.Equal(t, "STM8m5UgaFAAYQRuaNejYdS8FVLVp9Ss3K1qAVk5de6F8s3HnVbvA\n", out)

	out, err = run(t, "", "--prefix", "TST", "keys", "public", memoWIF)
	require.NoError(t, err)
	assert.Equal(t, "TST8m5UgaFAAYQRuaNejYdS8FVLVp9Ss3K1qAVk5de6F8s3HnVbvA\n", out)

	_, err = run(t, "", "keys", "public", "nope")
	assert.Error(t, err)
}

func TestTxFlow(t *testing.T) {
	dir := setupHome(t)
	ops := writeFile(t, dir, "ops.json",
		`[["vote",{"voter":"foo","author":"bar","permlink":"baz","weight":10000}]]`)

	created, err := run(t, "", "tx", "create",
		"--head-block-number", "1234",
		"--head-block-id", "000004d2f776e5420000000000000000000000ff",
		"--head-time", "2017-07-15T16:41:19",
		ops)
	require.NoError(t, err)
	txFile := writeFile(t, dir, "tx.json", created)

	out, err := run(t, "", "tx", "serialize", txFile)
	require.NoError(t, err)
	assert.Equal(t, "d204f776e54207486a59010003666f6f036261720362617a102700\n", out)

	out, err = run(t, "", "tx", "digest", txFile)
	require.NoError(t, err)
	assert.Equal(t, "25e2e8b21021136b4681d605bea24f2e0d8b7576a6f2cb43f7e0c46713acafec\n", out)

	// stdin works as well.
	out, err = run(t, created, "tx", "id", "-")
	require.NoError(t, err)
	assert.Equal(t, voteTrxID+"\n", out)

	signed, err := run(t, "", "tx", "sign", "--key", activeWIF, txFile)
	require.NoError(t, err)
	var stx protocol.SignedTransaction
	require.NoError(t, json.Unmarshal([]byte(signed), &stx))
	require.Len(t, stx.Signatures, 1)
	signedFile := writeFile(t, dir, "signed.json", signed)

	other, err := run(t, "", "tx", "sign", "-k", memoWIF, txFile)
	require.NoError(t, err)
	otherFile := writeFile(t, dir, "other.json", other)

	combined, err := run(t, "", "tx", "combine", signedFile, otherFile)
	require.NoError(t, err)
	combinedFile := writeFile(t, dir, "combined.json", combined)

	out, err = run(t, "", "tx", "recover", combinedFile)
	require.NoError(t, err)
	assert.Equal(t, mustPublic(t, activeWIF)+"\nSTM8m5UgaFAAYQRuaNejYdS8FVLVp9Ss3K1qAVk5de6F8s3HnVbvA\n", out)

	// A different chain gives a different digest.
	out, err = run(t, "", "--chain-id", strings.Repeat("00", 32), "tx", "digest", txFile)
	require.NoError(t, err)
	assert.NotEqual(t, "25e2e8b21021136b4681d605bea24f2e0d8b7576a6f2cb43f7e0c46713acafec\n", out)

	_, err = run(t, "", "--chain-id", "beeab0de", "tx", "digest", txFile)
	assert.Error(t, err)
	_, err = run(t, "", "tx", "sign", txFile)
	assert.Error(t, err)
	_, err = run(t, "", "tx", "id", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func mustPublic(t *testing.T, wif string) string {
	t.Helper()
	out, err := run(t, "", "keys", "public", wif)
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestMemo(t *testing.T) {
	setupHome(t)

	out, err := run(t, "", "memo", "decode", "--key", memoWIF, memoVec)
	require.NoError(t, err)
	assert.Equal(t, "memo爱\n", out)

	encoded, err := run(t, "", "memo", "encode",
		"--to", "STM8m5UgaFAAYQRuaNejYdS8FVLVp9Ss3K1qAVk5de6F8s3HnVbvA", "--key", activeWIF, "hello")
	require.NoError(t, err)

	out, err = run(t, "", "memo", "decode", "--keep-prefix", "-k", memoWIF, strings.TrimSpace(encoded))
	require.NoError(t, err)
	assert.Equal(t, "#hello\n", out)
}

func TestConfigFile(t *testing.T) {
	home := setupHome(t)
	writeFile(t, home, ".hive-tx.yaml", "memo_marker: \"!\"\naddress_prefix: TST\n")

	out, err := run(t, "", "keys", "public", memoWIF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TST"))

	cfg := writeFile(t, t.TempDir(), "bad.yaml", "expire_time: 5h\n")
	_, err = run(t, "", "--config", cfg, "keys", "public", memoWIF)
	assert.Error(t, err)
}

func TestURIParse(t *testing.T) {
	setupHome(t)

	// ["vote",{"voter":"foo"}]
	out, err := run(t, "", "uri", "parse", "hive://sign/op/WyJ2b3RlIix7InZvdGVyIjoiZm9vIn1d?a=posting&nb")
	require.NoError(t, err)
	assert.Contains(t, out, "Kind:         op")
	assert.Contains(t, out, "Authority:    posting")
	assert.Contains(t, out, "Broadcast:    false")
	assert.Contains(t, out, `"voter": "foo"`)

	_, err = run(t, "", "uri", "parse", "steem://sign/op/abc")
	assert.Error(t, err)
}
