// Package system is the OS automation module: file and folder management,
// application launch, and opening web pages. File paths are resolved inside a
// configured base directory; an argument that escapes it is refused.
package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/modules"
)

const ModuleID = "system"

type Automation struct {
	baseDir string
	// launcher runs the platform command that opens applications and web
	// pages, replaceable in tests.
	launcher func(ctx context.Context, target string) error
}

type Option func(*Automation)

// WithBaseDir confines all file and folder arguments to dir.
func WithBaseDir(dir string) Option {
	return func(a *Automation) { a.baseDir = dir }
}

func withLauncher(launcher func(ctx context.Context, target string) error) Option {
	return func(a *Automation) { a.launcher = launcher }
}

func New(opts ...Option) *Automation {
	automation := &Automation{launcher: launch}
	for _, opt := range opts {
		opt(automation)
	}
	if automation.baseDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			automation.baseDir = home
		} else {
			automation.baseDir = "."
		}
	}
	return automation
}

func (a *Automation) Capability() capabilities.Capability {
	return capabilities.Capability{
		ModuleID:    ModuleID,
		Description: "perform system automation tasks such as listing, creating, reading, writing, moving, and deleting files and folders, launching applications, and opening web pages",
		Reversible:  false,
		Actions: map[string]capabilities.ActionSpec{
			"create_folder": {
				Description: "Creates a new folder at the specified path.",
				ExampleJSON: `{"module":"system","action":"create_folder","arguments":{"folder":"DIRECTORY"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"folder": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Folder path to create"},
				},
			},
			"create_file": {
				Description: "Creates a new file at the specified path, optionally with initial content.",
				ExampleJSON: `{"module":"system","action":"create_file","arguments":{"filename":"DIRECTORY/FILENAME","content":"Optional text"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"filename": {Type: capabilities.ArgumentTypeString, Required: true, Description: "File path to create"},
					"content":  {Type: capabilities.ArgumentTypeString, Description: "Initial file content"},
				},
			},
			"write_file": {
				Description: "Writes content to an existing file, replacing what was there.",
				ExampleJSON: `{"module":"system","action":"write_file","arguments":{"filename":"mylog.txt","content":"New log entry."}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"filename": {Type: capabilities.ArgumentTypeString, Required: true, Description: "File path to write"},
					"content":  {Type: capabilities.ArgumentTypeString, Required: true, Description: "Content to write"},
				},
			},
			"read_file": {
				Description: "Reads and returns the text content of a file.",
				ExampleJSON: `{"module":"system","action":"read_file","arguments":{"filename":"my_document.txt"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"filename": {Type: capabilities.ArgumentTypeString, Required: true, Description: "File path to read"},
				},
			},
			"delete_file": {
				Description: "Deletes a file.",
				ExampleJSON: `{"module":"system","action":"delete_file","arguments":{"filename":"FILENAME"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"filename": {Type: capabilities.ArgumentTypeString, Required: true, Description: "File path to delete"},
				},
			},
			"delete_folder": {
				Description: "Deletes a folder and everything inside it.",
				ExampleJSON: `{"module":"system","action":"delete_folder","arguments":{"folder":"DIRECTORY"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"folder": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Folder path to delete"},
				},
			},
			"list_directory": {
				Description: "Lists the files and subfolders of a directory.",
				ExampleJSON: `{"module":"system","action":"list_directory","arguments":{"directory":"my_folder"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"directory": {Type: capabilities.ArgumentTypeString, Description: "Directory to list, defaults to the base directory"},
				},
			},
			"rename_file": {
				Description: "Renames a file.",
				ExampleJSON: `{"module":"system","action":"rename_file","arguments":{"src":"old_name.txt","dest":"new_name.txt"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"src":  {Type: capabilities.ArgumentTypeString, Required: true, Description: "Current file path"},
					"dest": {Type: capabilities.ArgumentTypeString, Required: true, Description: "New file path"},
				},
			},
			"copy_file": {
				Description: "Copies a file from source to destination.",
				ExampleJSON: `{"module":"system","action":"copy_file","arguments":{"src":"source.txt","dest":"destination/copy.txt"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"src":  {Type: capabilities.ArgumentTypeString, Required: true, Description: "Source file path"},
					"dest": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Destination file path"},
				},
			},
			"move_file": {
				Description: "Moves a file from source to destination.",
				ExampleJSON: `{"module":"system","action":"move_file","arguments":{"src":"source.txt","dest":"destination/moved.txt"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"src":  {Type: capabilities.ArgumentTypeString, Required: true, Description: "Source file path"},
					"dest": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Destination file path"},
				},
			},
			"open_application": {
				Description: "Opens an application by its path or common name.",
				ExampleJSON: `{"module":"system","action":"open_application","arguments":{"path":"notepad"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"path": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Application path or name"},
				},
			},
			"open_webpage": {
				Description: "Opens a web page in the default browser.",
				ExampleJSON: `{"module":"system","action":"open_webpage","arguments":{"url":"https://example.com"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"url": {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatURL, Required: true, Description: "Web page address"},
				},
			},
		},
	}
}

func (a *Automation) Handle(ctx context.Context, verb string, arguments map[string]any) (*modules.Result, error) {
	switch verb {
	case "create_folder":
		return a.createFolder(modules.String(arguments, "folder"))
	case "create_file":
		return a.createFile(modules.String(arguments, "filename"), modules.String(arguments, "content"))
	case "write_file":
		return a.writeFile(modules.String(arguments, "filename"), modules.String(arguments, "content"))
	case "read_file":
		return a.readFile(modules.String(arguments, "filename"))
	case "delete_file":
		return a.deleteFile(modules.String(arguments, "filename"))
	case "delete_folder":
		return a.deleteFolder(modules.String(arguments, "folder"))
	case "list_directory":
		return a.listDirectory(modules.StringOr(arguments, "directory", "."))
	case "rename_file":
		return a.renameFile(modules.String(arguments, "src"), modules.String(arguments, "dest"))
	case "copy_file":
		return a.copyFile(modules.String(arguments, "src"), modules.String(arguments, "dest"))
	case "move_file":
		return a.moveFile(modules.String(arguments, "src"), modules.String(arguments, "dest"))
	case "open_application":
		return a.openApplication(ctx, modules.String(arguments, "path"))
	case "open_webpage":
		return a.openWebpage(ctx, modules.String(arguments, "url"))
	default:
		return nil, fmt.Errorf("unsupported verb %q", verb)
	}
}

// resolve joins a user-supplied path onto the base directory and refuses
// anything that escapes it.
func (a *Automation) resolve(path string) (string, error) {
	if path == "" {
		return "", modules.NewError("I need a file or folder path for that.", nil)
	}

	resolved := filepath.Clean(filepath.Join(a.baseDir, path))
	base := filepath.Clean(a.baseDir)
	if resolved != base && !strings.HasPrefix(resolved, base+string(filepath.Separator)) {
		return "", modules.NewError("I can only work with files inside your workspace.",
			fmt.Errorf("path %q escapes base directory", path))
	}
	return resolved, nil
}
