package install

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/testutil"
)

func TestDirectFS(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := DirectFS{}

	require.NoError(t, fs.MkdirAll(ctx, filepath.Join(dir, "a", "b")))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))

	file := filepath.Join(dir, "rc")
	require.NoError(t, fs.AppendFile(ctx, file, []byte("one\n")))
	require.NoError(t, fs.AppendFile(ctx, file, []byte("two\n")))
	data, err := fs.ReadFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))

	_, err = fs.ReadFile(ctx, filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, iofs.ErrNotExist))

	require.NoError(t, os.Chmod(file, 0600))
	require.NoError(t, fs.CopyFile(ctx, file, file+".bak"))
	info, err := os.Stat(file + ".bak")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, fs.Move(ctx, filepath.Join(dir, "a"), filepath.Join(dir, "moved")))
	assert.DirExists(t, filepath.Join(dir, "moved", "b"))
	assert.NoDirExists(t, filepath.Join(dir, "a"))

	link := filepath.Join(dir, "current")
	require.NoError(t, fs.Symlink(ctx, filepath.Join(dir, "moved"), link))
	require.NoError(t, fs.Symlink(ctx, filepath.Join(dir, "moved", "b"), link))
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "moved", "b"), target)

	require.NoError(t, fs.RemoveAll(ctx, filepath.Join(dir, "moved")))
	assert.NoDirExists(t, filepath.Join(dir, "moved"))
	assert.False(t, fs.Escalated())
}

func TestCopyTreePreservesLinksAndModes(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "tool"), []byte("x"), 0755))
	require.NoError(t, os.Symlink("tool", filepath.Join(src, "bin", "alias")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, copyTree(src, dst))

	info, err := os.Stat(filepath.Join(dst, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	link, err := os.Readlink(filepath.Join(dst, "bin", "alias"))
	require.NoError(t, err)
	assert.Equal(t, "tool", link)
}

func escalatedFS(exec *testutil.FakeExecutor) EscalatedFS {
	runner := sysexec.NewRunner(sysexec.WithExecutor(exec), sysexec.WithEUID(1000), sysexec.WithEscalator("sudo"), sysexec.WithLogger(log.NewNoop()))
	return EscalatedFS{Runner: runner}
}

func TestEscalatedFSCommands(t *testing.T) {
	ctx := context.Background()
	exec := testutil.NewFakeExecutor()
	fs := escalatedFS(exec)

	require.NoError(t, fs.MkdirAll(ctx, "/usr/local/lib/nodejs"))
	require.NoError(t, fs.RemoveAll(ctx, "/usr/local/lib/nodejs/old"))
	require.NoError(t, fs.Move(ctx, "/tmp/stage/node", "/usr/local/lib/nodejs/node"))
	require.NoError(t, fs.Symlink(ctx, "/usr/local/lib/nodejs/node", "/usr/local/node"))
	require.NoError(t, fs.CopyFile(ctx, "/etc/pg_hba.conf", "/etc/pg_hba.conf.toolstrap.bak"))
	require.NoError(t, fs.AppendFile(ctx, "/etc/pg_hba.conf", []byte("host all app 127.0.0.1/32 scram-sha-256\n")))

	cmds := exec.Commands()
	assert.Equal(t, []string{
		"sudo mkdir -p -- /usr/local/lib/nodejs",
		"sudo rm -rf -- /usr/local/lib/nodejs/old",
		"sudo mv -T -- /tmp/stage/node /usr/local/lib/nodejs/node",
		"sudo chown -R 0:0 -- /usr/local/lib/nodejs/node",
		"sudo ln -sfn -- /usr/local/lib/nodejs/node /usr/local/node.toolstrap-tmp",
		"sudo mv -Tf -- /usr/local/node.toolstrap-tmp /usr/local/node",
		"sudo cp -p -- /etc/pg_hba.conf /etc/pg_hba.conf.toolstrap.bak",
	}, cmds[:7])
	assert.True(t, strings.HasPrefix(cmds[7], "sudo sh -c printf '%s' \"$1\" >> \"$2\" toolstrap host all app"))
	assert.True(t, strings.HasSuffix(cmds[7], " /etc/pg_hba.conf"))
	assert.True(t, fs.Escalated())
}

func TestWriteFileKeepsMode(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "pg_hba.conf")
	require.NoError(t, os.WriteFile(file, []byte("old content\n"), 0600))

	require.NoError(t, DirectFS{}.WriteFile(ctx, file, []byte("new\n")))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEscalatedFSWriteFile(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	require.NoError(t, escalatedFS(exec).WriteFile(context.Background(), "/etc/pg_hba.conf", []byte("local all all peer\n")))
	cmds := exec.Commands()
	require.Len(t, cmds, 1)
	assert.True(t, strings.HasPrefix(cmds[0], "sudo sh -c printf '%s' \"$1\" > \"$2\" toolstrap local all all peer"))
	assert.True(t, strings.HasSuffix(cmds[0], " /etc/pg_hba.conf"))
}

func TestEscalatedFSReadFile(t *testing.T) {
	ctx := context.Background()
	exec := testutil.NewFakeExecutor().
		Respond("test -e /etc/missing", "", 1).
		Respond("cat -- /etc/pg_hba.conf", "local all postgres peer\n", 0)
	fs := escalatedFS(exec)

	data, err := fs.ReadFile(ctx, "/etc/pg_hba.conf")
	require.NoError(t, err)
	assert.Equal(t, "local all postgres peer\n", string(data))

	_, err = fs.ReadFile(ctx, "/etc/missing")
	assert.True(t, errors.Is(err, iofs.ErrNotExist))
}

func TestEscalatedFSFailure(t *testing.T) {
	exec := testutil.NewFakeExecutor().Respond("mkdir", "permission denied", 1)
	err := escalatedFS(exec).MkdirAll(context.Background(), "/opt/x")
	var cmdErr *sysexec.CommandError
	assert.True(t, errors.As(err, &cmdErr))
}

func TestNeedsEscalation(t *testing.T) {
	home := t.TempDir()
	assert.False(t, NeedsEscalation("/usr/local", home, true), "root never escalates")
	assert.False(t, NeedsEscalation(filepath.Join(home, ".local", "node"), home, false), "home is never escalated")

	writable := t.TempDir()
	assert.False(t, NeedsEscalation(filepath.Join(writable, "not", "yet", "created"), "", false))

	if os.Geteuid() == 0 {
		t.Skip("running as root: every directory is writable")
	}
	readonly := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(readonly, 0555))
	assert.True(t, NeedsEscalation(filepath.Join(readonly, "lib"), "", false))
}

func TestForPath(t *testing.T) {
	runner := sysexec.NewRunner(sysexec.WithExecutor(testutil.NewFakeExecutor()), sysexec.WithEUID(0))
	_, direct := ForPath("/usr/local", "", runner).(DirectFS)
	assert.True(t, direct)

	runner = sysexec.NewRunner(sysexec.WithExecutor(testutil.NewFakeExecutor()), sysexec.WithEUID(1000))
	dir := t.TempDir()
	_, direct = ForPath(dir, dir, runner).(DirectFS)
	assert.True(t, direct)
}
