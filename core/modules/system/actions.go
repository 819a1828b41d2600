package system

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jpcaldeira/aura-core/core/modules"
)

func (a *Automation) createFolder(folder string) (*modules.Result, error) {
	path, err := a.resolve(folder)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, modules.NewError("I couldn't create that folder.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Created folder %s.", filepath.Base(path)),
		Display: "Created " + path,
	}, nil
}

func (a *Automation) createFile(filename, content string) (*modules.Result, error) {
	path, err := a.resolve(filename)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return nil, modules.NewError("That file already exists.", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, modules.NewError("I couldn't create that file.", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, modules.NewError("I couldn't create that file.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Created %s.", filepath.Base(path)),
		Display: "Created " + path,
	}, nil
}

func (a *Automation) writeFile(filename, content string) (*modules.Result, error) {
	path, err := a.resolve(filename)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, modules.NewError("I couldn't find that file to write to.", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, modules.NewError("I couldn't write to that file.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Wrote to %s.", filepath.Base(path)),
		Display: "Wrote " + path,
	}, nil
}

func (a *Automation) readFile(filename string) (*modules.Result, error) {
	path, err := a.resolve(filename)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, modules.NewError("I couldn't read that file.", err)
	}
	return &modules.Result{
		Payload: string(content),
		Spoken:  fmt.Sprintf("%s says: %s", filepath.Base(path), string(content)),
		Display: string(content),
	}, nil
}

func (a *Automation) deleteFile(filename string) (*modules.Result, error) {
	path, err := a.resolve(filename)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, modules.NewError("I couldn't find that file.", err)
	}
	if info.IsDir() {
		return nil, modules.NewError("That's a folder. Ask me to delete the folder instead.", nil)
	}
	if err := os.Remove(path); err != nil {
		return nil, modules.NewError("I couldn't delete that file.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Deleted %s.", filepath.Base(path)),
		Display: "Deleted " + path,
	}, nil
}

func (a *Automation) deleteFolder(folder string) (*modules.Result, error) {
	path, err := a.resolve(folder)
	if err != nil {
		return nil, err
	}
	if filepath.Clean(path) == filepath.Clean(a.baseDir) {
		return nil, modules.NewError("I won't delete the whole workspace.", nil)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, modules.NewError("I couldn't find that folder.", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, modules.NewError("I couldn't delete that folder.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Deleted folder %s.", filepath.Base(path)),
		Display: "Deleted " + path,
	}, nil
}

func (a *Automation) listDirectory(directory string) (*modules.Result, error) {
	path, err := a.resolve(directory)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, modules.NewError("I couldn't list that directory.", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += string(filepath.Separator)
		}
		names = append(names, name)
	}

	spoken := fmt.Sprintf("%s contains %d items.", filepath.Base(path), len(names))
	if len(names) == 0 {
		spoken = fmt.Sprintf("%s is empty.", filepath.Base(path))
	}
	return &modules.Result{
		Payload: names,
		Spoken:  spoken,
		Display: strings.Join(names, "\n"),
	}, nil
}

func (a *Automation) renameFile(src, dest string) (*modules.Result, error) {
	return a.relocate(src, dest, "Renamed")
}

func (a *Automation) moveFile(src, dest string) (*modules.Result, error) {
	return a.relocate(src, dest, "Moved")
}

func (a *Automation) relocate(src, dest, verb string) (*modules.Result, error) {
	srcPath, err := a.resolve(src)
	if err != nil {
		return nil, err
	}
	destPath, err := a.resolve(dest)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, modules.NewError("I couldn't move that file.", err)
	}
	if err := os.Rename(srcPath, destPath); err != nil {
		return nil, modules.NewError("I couldn't move that file.", err)
	}
	return &modules.Result{
		Payload: destPath,
		Spoken:  fmt.Sprintf("%s %s to %s.", verb, filepath.Base(srcPath), filepath.Base(destPath)),
		Display: verb + " " + srcPath + " -> " + destPath,
	}, nil
}

func (a *Automation) copyFile(src, dest string) (*modules.Result, error) {
	srcPath, err := a.resolve(src)
	if err != nil {
		return nil, err
	}
	destPath, err := a.resolve(dest)
	if err != nil {
		return nil, err
	}

	source, err := os.Open(srcPath)
	if err != nil {
		return nil, modules.NewError("I couldn't find the file to copy.", err)
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, modules.NewError("I couldn't copy that file.", err)
	}
	destination, err := os.Create(destPath)
	if err != nil {
		return nil, modules.NewError("I couldn't copy that file.", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return nil, modules.NewError("I couldn't copy that file.", err)
	}
	return &modules.Result{
		Payload: destPath,
		Spoken:  fmt.Sprintf("Copied %s to %s.", filepath.Base(srcPath), filepath.Base(destPath)),
		Display: "Copied " + srcPath + " -> " + destPath,
	}, nil
}

func (a *Automation) openApplication(ctx context.Context, path string) (*modules.Result, error) {
	if path == "" {
		return nil, modules.NewError("I need the application's name to open it.", nil)
	}

	if err := a.launcher(ctx, path); err != nil {
		return nil, modules.NewError("I couldn't open that application.", err)
	}
	return &modules.Result{
		Payload: path,
		Spoken:  fmt.Sprintf("Opening %s.", filepath.Base(path)),
		Display: "Opened " + path,
	}, nil
}

func (a *Automation) openWebpage(ctx context.Context, pageURL string) (*modules.Result, error) {
	if err := a.launcher(ctx, pageURL); err != nil {
		return nil, modules.NewError("I couldn't open that page.", err)
	}
	return &modules.Result{
		Payload: pageURL,
		Spoken:  "Opening that page in your browser.",
		Display: "Opened " + pageURL,
	}, nil
}

// launch opens a target (application or URL) with the platform's opener.
func launch(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	return cmd.Start()
}
