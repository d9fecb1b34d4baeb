package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// TargetKind is the kind of a documentable cargo target.
type TargetKind string

const (
	TargetLibrary TargetKind = "lib"
	TargetBinary  TargetKind = "bin"
)

// Target is the cargo target being documented.
type Target struct {
	Kind TargetKind
	// Name is the target name, which may contain dashes. Use CrateName for
	// the name the definitions are rooted under.
	Name    string
	SrcPath string
}

// CrateName is the target name with dashes replaced by underscores.
func (t Target) CrateName() string {
	return strings.ReplaceAll(t.Name, "-", "_")
}

// Metadata is the subset of `cargo metadata --format-version 1` we read.
type Metadata struct {
	Packages []struct {
		Name    string `json:"name"`
		Targets []struct {
			Name    string   `json:"name"`
			Kind    []string `json:"kind"`
			SrcPath string   `json:"src_path"`
		} `json:"targets"`
	} `json:"packages"`
}

// RetrieveMetadata runs cargo metadata for the manifest.
func RetrieveMetadata(ctx context.Context, run Runner, manifestPath string) (*Metadata, error) {
	out, err := run(ctx, filepath.Dir(manifestPath), "cargo", "metadata",
		"--manifest-path", manifestPath, "--no-deps", "--format-version", "1")
	if err != nil {
		return nil, err
	}
	var md Metadata
	if err := json.Unmarshal(out, &md); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryMetadata, "unexpected JSON response from cargo metadata").Build()
	}
	return &md, nil
}

// TargetFromMetadata picks the target to document: the first library, or
// the first binary when there is none.
func TargetFromMetadata(md *Metadata) (Target, error) {
	if len(md.Packages) == 0 {
		return Target{}, ferrors.MetadataError("cargo metadata lists no packages").Build()
	}

	var libs, bins []Target
	for _, t := range md.Packages[0].Targets {
		if len(t.Kind) != 1 {
			return Target{}, ferrors.MetadataError(fmt.Sprintf("expected one kind for target '%s'", t.Name)).
				WithContext("target", t.Name).
				Build()
		}
		switch TargetKind(t.Kind[0]) {
		case TargetLibrary:
			libs = append(libs, Target{Kind: TargetLibrary, Name: t.Name, SrcPath: t.SrcPath})
		case TargetBinary:
			bins = append(bins, Target{Kind: TargetBinary, Name: t.Name, SrcPath: t.SrcPath})
		}
	}

	switch {
	case len(libs)+len(bins) == 0:
		return Target{}, ferrors.MetadataError("no targets with supported kinds (`bin`, `lib`) found").Build()
	case len(libs)+len(bins) > 1:
		chosen := "first binary"
		if len(libs) > 0 {
			chosen = "library"
		}
		t := append(libs, bins...)[0]
		slog.Warn("Found more than one target to document", slog.String("documenting", chosen), logfields.Name(t.Name))
		return t, nil
	case len(libs) == 1:
		return libs[0], nil
	default:
		return bins[0], nil
	}
}

// TargetFromManifest reads the target straight from Cargo.toml. It follows
// cargo's defaults: [lib] path or src/lib.rs, then src/main.rs.
func TargetFromManifest(manifestPath string) (Target, error) {
	v := viper.New()
	v.SetConfigFile(manifestPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Target{}, ferrors.WrapError(err, ferrors.CategoryMetadata, "failed to read cargo manifest").
			WithContext("file", manifestPath).
			Build()
	}
	name := v.GetString("package.name")
	if name == "" {
		return Target{}, ferrors.MetadataError("cargo manifest has no package name").
			WithContext("file", manifestPath).
			Build()
	}
	root := filepath.Dir(manifestPath)

	if lib := v.GetString("lib.path"); lib != "" {
		libName := v.GetString("lib.name")
		if libName == "" {
			libName = name
		}
		return Target{Kind: TargetLibrary, Name: libName, SrcPath: filepath.Join(root, lib)}, nil
	}
	for _, c := range []struct {
		kind TargetKind
		rel  string
	}{{TargetLibrary, "src/lib.rs"}, {TargetBinary, "src/main.rs"}} {
		p := filepath.Join(root, filepath.FromSlash(c.rel))
		if fileExists(p) {
			return Target{Kind: c.kind, Name: name, SrcPath: p}, nil
		}
	}
	return Target{}, ferrors.MetadataError("no targets with supported kinds (`bin`, `lib`) found").
		WithContext("file", manifestPath).
		Build()
}

// ResolveTarget asks cargo for the target and reads Cargo.toml when cargo is
// not installed.
func ResolveTarget(ctx context.Context, run Runner, manifestPath string) (Target, error) {
	md, err := RetrieveMetadata(ctx, run, manifestPath)
	if errors.Is(err, exec.ErrNotFound) {
		slog.Warn("cargo not found, reading target from manifest", logfields.File(manifestPath))
		return TargetFromManifest(manifestPath)
	}
	if err != nil {
		return Target{}, err
	}
	return TargetFromMetadata(md)
}
