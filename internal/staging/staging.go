// Package staging unpacks the packaged static fixture before a local run
// and removes the working directory afterward. The pipeline itself only
// assumes the unpacked documents exist under the deterministic path layout.
package staging

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Config names the fixture convention: listing URIs under FixturePrefix
// require ArchivePath to be unpacked into ExtractDir first.
type Config struct {
	FixturePrefix string `mapstructure:"fixture_prefix"`
	ArchivePath   string `mapstructure:"archive_path"`
	ExtractDir    string `mapstructure:"extract_dir"`
}

// Stage prepares the static fixture for uri if it points inside the
// packaged path, and returns a cleanup that removes the working directory.
// The cleanup is safe to call on every exit path; for URIs outside the
// fixture convention it is a no-op.
func Stage(uri string, cfg Config, logger *zap.Logger) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FixturePrefix == "" || !strings.HasPrefix(uri, cfg.FixturePrefix) {
		return func() {}, nil
	}

	logger.Info("unpacking static fixture",
		zap.String("archive", cfg.ArchivePath),
		zap.String("dir", cfg.ExtractDir),
	)
	if err := unpack(cfg.ArchivePath, cfg.ExtractDir); err != nil {
		return func() {}, fmt.Errorf("unpack fixture archive: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(cfg.ExtractDir); err != nil {
			logger.Warn("remove fixture directory", zap.Error(err))
		}
	}
	return cleanup, nil
}

func unpack(archivePath, dir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractFile(f, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.Clean(f.Name))
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %q escapes the working directory", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dest, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %q: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %q: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}
