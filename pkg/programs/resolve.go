package programs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
)

// ResourcePath resolves a file shipped alongside the binary: the working
// directory wins over the executable's directory so a kit copied onto a
// workstation can carry its own programs.json.
func ResourcePath(rel string) string {
	for _, dir := range searchDirs() {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, rel)
	}
	return rel
}

func searchDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// LoadOrBootstrap finds and loads the programs file named by the
// configuration or shipped with the binary.
//
// A missing file is bootstrapped from the template into the working directory
// (returning ErrTemplateCreated and an empty list); without a template the
// built-in defaults come back with ErrNotFound. Parse failures also return the
// defaults, together with the parse error. The returned path is the file that
// was used or created.
func LoadOrBootstrap(cfg *config.Configuration) ([]Program, string, error) {
	path := cfg.ProgramsPath
	if path == "" {
		path = ResourcePath(DefaultFileName)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		template := cfg.TemplatePath
		if template == "" {
			template = ResourcePath(TemplateFileName)
		}
		if _, err := os.Stat(template); err != nil {
			logging.Warn("Programs file not found and no template available", "path", path)
			return Defaults(), path, ErrNotFound
		}

		cwd, err := os.Getwd()
		if err != nil {
			return Defaults(), path, err
		}
		dest := filepath.Join(cwd, DefaultFileName)
		if err := copyFile(template, dest); err != nil {
			return Defaults(), dest, fmt.Errorf("creating %s from template: %w", dest, err)
		}
		logging.Info("Created programs file from template", "template", template, "path", dest)
		return []Program{}, dest, ErrTemplateCreated
	}

	list, err := Load(path)
	if err != nil {
		logging.Error("Failed to load programs file", "path", path, "error", err)
		return Defaults(), path, err
	}
	logging.Info("Loaded programs file", "path", path, "count", len(list))
	return list, path, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
