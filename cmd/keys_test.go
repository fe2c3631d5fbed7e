package main

import (
	"bytes"
	"gemini-gateway/core"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "0123456789abcdef"

// useKeysDB 让 keys 子命令使用临时的 SQLite 文件
func useKeysDB(t *testing.T, encryptionKey string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.db")
	t.Setenv("GATEWAY_CREDENTIALS_DB_PATH", path)
	t.Setenv("GATEWAY_CREDENTIALS_ENCRYPTION_KEY", encryptionKey)
	return path
}

func runKeys(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newKeysCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeysCommands_AddListDisable(t *testing.T) {
	path := useKeysDB(t, testEncryptionKey)

	out, err := runKeys(t, "add", "--label", "primary", "AIzaSyABCDEFGwxyz", "AIzaSySecondKey9876")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Added credential 1 at position 0 (Key: AIz***wxyz)")
	assert.Contains(t, out, "✅ Added credential 2 at position 1 (Key: AIz***9876)")
	assert.NotContains(t, out, "AIzaSyABCDEFGwxyz")

	out, err = runKeys(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "primary")
	assert.Contains(t, out, "AIz***wxyz")
	assert.NotContains(t, out, "AIzaSyABCDEFGwxyz", "Secrets are masked in listings")
	assert.NotContains(t, out, "false")

	out, err = runKeys(t, "disable", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Credential 1 disabled")

	out, err = runKeys(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "false")

	// 命令结束后连接已释放，数据库仍可重新打开读取
	db, err := openDatabase(path)
	require.NoError(t, err)
	defer closeDatabase(db)
	records, err := core.ListCredentials(db)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Enabled)
	assert.True(t, records[1].Enabled)
	assert.NotEqual(t, "AIzaSyABCDEFGwxyz", records[0].KeyValue, "Secrets are stored encrypted")
}

func TestKeysCommands_ListWithWrongKey(t *testing.T) {
	useKeysDB(t, testEncryptionKey)
	_, err := runKeys(t, "add", "AIzaSyABCDEFGwxyz")
	require.NoError(t, err)

	t.Setenv("GATEWAY_CREDENTIALS_ENCRYPTION_KEY", "fedcba9876543210")
	out, err := runKeys(t, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "<undecryptable>")
}

func TestKeysCommands_Errors(t *testing.T) {
	useKeysDB(t, testEncryptionKey)

	_, err := runKeys(t, "disable", "abc")
	assert.ErrorContains(t, err, "invalid credential id")

	_, err = runKeys(t, "enable", "42")
	assert.ErrorContains(t, err, "credential 42 not found")

	_, err = runKeys(t, "add")
	assert.Error(t, err)
}
