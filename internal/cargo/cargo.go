// Package cargo locates the firmware image a Rust embedded project builds, so the
// monitor can annotate a `cargo build` output without an explicit --elf.
//
// The image lives at <target-dir>/<triple>/<debug|release>/[examples/]<name>. The
// target directory is $CARGO_TARGET_DIR, build.target-dir from .cargo/config.toml, or
// target/ next to the workspace root manifest.
package cargo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var (
	// ErrNoProject is returned when no Cargo.toml is found from the start directory up.
	ErrNoProject = errors.New("no Cargo.toml found")

	// ErrNoPackage is returned when the nearest manifest is a virtual workspace.
	ErrNoPackage = errors.New("manifest has no [package]")
)

// TargetDirEnv overrides the build output directory, as it does for cargo.
const TargetDirEnv = "CARGO_TARGET_DIR"

// Options selects the artifact to resolve.
type Options struct {
	// Dir is where the manifest search starts; empty means the working directory.
	Dir string
	// Chip picks the target triple when neither Target nor build.target is set.
	Chip string
	// Framework is checked against the resolved triple; empty accepts any and
	// defaults to Baremetal for the chip table.
	Framework string
	// Target is an explicit target triple.
	Target  string
	Release bool
	// Example selects examples/<name> instead of the package binary.
	Example string
}

// Image is a resolved artifact.
type Image struct {
	Path      string
	Package   string
	Target    string
	Framework Framework
	Profile   string
}

type manifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace map[string]any `toml:"workspace"`
}

type cargoConfig struct {
	Build struct {
		Target    any    `toml:"target"`
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
}

// Resolve finds the image path for opts. It does not check that the file exists; the
// symbol loader reports a missing image.
func Resolve(opts Options) (Image, error) {
	start := opts.Dir
	if start == "" {
		start = "."
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return Image{}, err
	}

	pkgDir, m, err := findManifest(start)
	if err != nil {
		return Image{}, err
	}
	if m.Package == nil || m.Package.Name == "" {
		return Image{}, fmt.Errorf("%w: %s", ErrNoPackage, filepath.Join(pkgDir, "Cargo.toml"))
	}
	root := workspaceRoot(pkgDir)

	build, err := readBuildConfig(start)
	if err != nil {
		return Image{}, err
	}

	triple, fw, err := resolveTarget(opts, build.target)
	if err != nil {
		return Image{}, err
	}

	targetDir := filepath.Join(root, "target")
	switch {
	case os.Getenv(TargetDirEnv) != "":
		// Relative to the working directory, as cargo reads it.
		if targetDir, err = filepath.Abs(os.Getenv(TargetDirEnv)); err != nil {
			return Image{}, err
		}
	case build.targetDir != "":
		targetDir = build.targetDir
	}

	profile := "debug"
	if opts.Release {
		profile = "release"
	}

	path := filepath.Join(targetDir, triple, profile)
	name := m.Package.Name
	if opts.Example != "" {
		path = filepath.Join(path, "examples")
		name = opts.Example
	}

	return Image{
		Path:      filepath.Join(path, name),
		Package:   m.Package.Name,
		Target:    triple,
		Framework: fw,
		Profile:   profile,
	}, nil
}

// resolveTarget picks the triple: an explicit target, then build.target, then the chip
// table. A framework given alongside a triple must agree with its suffix.
func resolveTarget(opts Options, configured string) (string, Framework, error) {
	triple := opts.Target
	if triple == "" {
		triple = configured
	}

	if triple == "" {
		fw, err := ParseFramework(opts.Framework)
		if err != nil {
			return "", "", err
		}
		triple, err = Target(opts.Chip, fw)
		if err != nil {
			return "", "", err
		}
		return triple, fw, nil
	}

	fw, derr := FrameworkFromTarget(triple)
	if opts.Framework == "" {
		// Targets outside the ESP naming scheme still resolve.
		return triple, fw, nil
	}
	want, err := ParseFramework(opts.Framework)
	if err != nil {
		return "", "", err
	}
	if derr != nil {
		return "", "", derr
	}
	if want != fw {
		return "", "", fmt.Errorf("%w: target %q is a %s build, not %s", ErrUnknownTarget, triple, fw, want)
	}
	return triple, fw, nil
}

// findManifest walks up from dir to the nearest Cargo.toml.
func findManifest(dir string) (string, manifest, error) {
	for d := dir; ; d = filepath.Dir(d) {
		path := filepath.Join(d, "Cargo.toml")
		if _, err := os.Stat(path); err == nil {
			var m manifest
			if _, err := toml.DecodeFile(path, &m); err != nil {
				return "", manifest{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			return d, m, nil
		}
		if parent := filepath.Dir(d); parent == d {
			return "", manifest{}, fmt.Errorf("%w in %s or any parent directory", ErrNoProject, dir)
		}
	}
}

// workspaceRoot returns the nearest ancestor of pkgDir, itself included, whose manifest
// declares [workspace]; pkgDir when there is none.
func workspaceRoot(pkgDir string) string {
	for d := pkgDir; ; d = filepath.Dir(d) {
		var m manifest
		if _, err := toml.DecodeFile(filepath.Join(d, "Cargo.toml"), &m); err == nil && m.Workspace != nil {
			return d
		}
		if parent := filepath.Dir(d); parent == d {
			return pkgDir
		}
	}
}

type buildConfig struct {
	target    string
	targetDir string
}

// readBuildConfig merges build.target and build.target-dir from .cargo/config.toml (or
// the legacy .cargo/config) files from dir upward; the nearest file wins per key.
func readBuildConfig(dir string) (buildConfig, error) {
	var out buildConfig
	for d := dir; ; d = filepath.Dir(d) {
		for _, name := range []string{"config.toml", "config"} {
			path := filepath.Join(d, ".cargo", name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			var c cargoConfig
			if _, err := toml.DecodeFile(path, &c); err != nil {
				return buildConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if out.target == "" {
				out.target = firstTarget(c.Build.Target)
			}
			if out.targetDir == "" && c.Build.TargetDir != "" {
				// Relative to the directory holding .cargo/.
				out.targetDir = c.Build.TargetDir
				if !filepath.IsAbs(out.targetDir) {
					out.targetDir = filepath.Join(d, out.targetDir)
				}
			}
			break
		}
		if parent := filepath.Dir(d); parent == d {
			return out, nil
		}
	}
}

// firstTarget accepts build.target as a string or a list of strings.
func firstTarget(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
