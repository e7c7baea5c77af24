package hexfile

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlinhw/wasmic/lower"
)

func TestWriteProgram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProgram(&buf, []byte{0x00, 0x1a, 0xff, 0x0f}))
	assert.Equal(t, "00\n1A\nFF\n0F\n", buf.String())
}

func TestWriteProgramEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProgram(&buf, nil))
	assert.Equal(t, "", buf.String())
}

func TestWriteBranchTable(t *testing.T) {
	entries := []lower.Entry{
		{SourcePC: 2, TargetPC: 5},
		{SourcePC: 0xdeadbeef, TargetPC: 0x12},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBranchTable(&buf, entries))
	assert.Equal(t, "00000002 00000005\nDEADBEEF 00000012\n", buf.String())
}

func TestWriteBranchTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBranchTable(&buf, nil))
	assert.Equal(t, "", buf.String())
}

func TestWriteExpected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpected(&buf, 42))
	assert.Equal(t, "42\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteExpected(&buf, -13))
	assert.Equal(t, "-13\n", buf.String())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()

	progPath := filepath.Join(dir, "prog.hex")
	require.NoError(t, WriteProgramFile(progPath, []byte{0x41, 0x0a}))

	data, err := ioutil.ReadFile(progPath)
	require.NoError(t, err)
	assert.Equal(t, "41\n0A\n", string(data))

	branchPath := filepath.Join(dir, "branch.hex")
	require.NoError(t, WriteBranchTableFile(branchPath, []lower.Entry{{SourcePC: 2, TargetPC: 5}}))

	data, err = ioutil.ReadFile(branchPath)
	require.NoError(t, err)
	assert.Equal(t, "00000002 00000005\n", string(data))

	expectedPath := filepath.Join(dir, "expected.txt")
	require.NoError(t, WriteExpectedFile(expectedPath, 30))

	data, err = ioutil.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, "30\n", string(data))
}
