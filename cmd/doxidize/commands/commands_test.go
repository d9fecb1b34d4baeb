package commands

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	dxtesting "git.home.luguber.info/inful/doxidize/internal/testing"
	"git.home.luguber.info/inful/doxidize/internal/version"
)

const libSource = "//! The demo crate.\n\n/// A point.\npub struct Point;\n"

func cargoMissing(context.Context, string, string, ...string) ([]byte, error) {
	return nil, ferrors.WrapError(&exec.Error{Name: "cargo", Err: exec.ErrNotFound}, ferrors.CategoryExternalTool, "failed to run cargo").Build()
}

// run parses args like the binary does and executes the selected command.
func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("doxidize"),
		kong.Vars{"version": version.String()},
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Context: ctx, Out: &out, Runner: cargoMissing}, cli)
	return out.String(), err
}

func exitCode(err error) int {
	return ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err)
}

func TestInitBuildClean(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithSource("lib.rs", libSource).
		WithExample("hello.rs", "fn main() {}\n")
	manifest := pb.Build()

	out, err := run(t, t.Context(), "--manifest-path", manifest, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Initializing doxidize project")
	assert.Contains(t, out, "(1 definitions, 1 examples)")
	pb.Assert().
		AssertFileExists("docs/README.md").
		AssertFileExists("docs/api/Point.md").
		AssertFileExists("docs/examples/hello.md").
		AssertFileExists("Doxidize.toml")

	_, err = run(t, t.Context(), "--manifest-path", manifest, "init")
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))

	require.NoError(t, os.WriteFile(filepath.Join(pb.Root(), "docs", "README.md"), []byte("# Demo\n\nSee [the point](api/Point.html).\n"), 0o644))
	out, err = run(t, t.Context(), "--manifest-path", manifest, "build", "--check-links")
	require.NoError(t, err)
	assert.Contains(t, out, "Starting doxidize build")
	assert.Contains(t, out, "Build completed successfully")
	pb.Assert().
		AssertFileContains("target/docs/public/index.html", "<h1>Demo</h1>").
		AssertFileExists("target/docs/public/api/Point.html").
		AssertFileExists("target/docs/public/examples/hello.html").
		AssertFileExists("target/doxidize/state.db")

	out, err = run(t, t.Context(), "--manifest-path", manifest, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")
	pb.Assert().AssertFileNotExists("target/docs")

	// A missing output root is fine.
	_, err = run(t, t.Context(), "--manifest-path", manifest, "clean")
	require.NoError(t, err)
}

func TestBuild_BrokenLinks(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithConfig("[analysis]\nbackend = \"none\"\n").
		WithDoc("README.md", "# Demo\n\n[gone](missing.html)\n")
	manifest := pb.Build()

	out, err := run(t, t.Context(), "--manifest-path", manifest, "build", "--check-links")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "broken link in index.html: missing.html")

	// Without the flag the same site builds.
	_, err = run(t, t.Context(), "--manifest-path", manifest, "build")
	require.NoError(t, err)
}

func TestBuild_OutputOverride(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithConfig("[analysis]\nbackend = \"none\"\n").
		WithDoc("README.md", "# Demo")
	manifest := pb.Build()

	_, err := run(t, t.Context(), "--manifest-path", manifest, "--output", "site", "build")
	require.NoError(t, err)
	pb.Assert().
		AssertFileExists("site/public/index.html").
		AssertFileNotExists("target/docs")
}

func TestCommands_Uninitialized(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).WithSource("lib.rs", libSource)
	manifest := pb.Build()

	for _, cmd := range []string{"build", "update", "publish"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := run(t, t.Context(), "--manifest-path", manifest, cmd)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryUninitialized))
			assert.Equal(t, 3, exitCode(err))
		})
	}
}

func TestUpdate(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).WithSource("lib.rs", libSource+"\npub struct Extra;\n")
	manifest := pb.Build()
	_, err := run(t, t.Context(), "--manifest-path", manifest, "init")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(pb.Root(), "src", "lib.rs"), []byte(libSource), 0o644))
	out, err := run(t, t.Context(), "--manifest-path", manifest, "update")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 definitions, 0 examples, 1 removed)")
	pb.Assert().AssertFileNotExists("docs/api/Extra.md")
}

func TestServe_StopsWithContext(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithConfig("[analysis]\nbackend = \"none\"\n").
		WithDoc("README.md", "# Demo")
	manifest := pb.Build()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := run(t, ctx, "--manifest-path", manifest, "serve", "--addr", "127.0.0.1:0", "--metrics")
	require.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.Context(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}
