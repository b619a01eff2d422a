package paths

import (
	"path/filepath"
	"strings"

	"github.com/yasakei/xos/internal/shared/errs"
)

// Top-level directories
const (
	Home       = "home"
	System     = "system"
	Local      = "local"
	Wallpapers = "wallpapers"
	Icons      = "icons"
)

// System files
const (
	// Users contains one profile record per user
	Users = "system/users"

	// ActiveSession is the active session pointer
	ActiveSession = "system/user.json"

	// Themes contains installed theme files
	Themes = "system/themes"

	// DefaultWallpaper is served when a requested wallpaper is missing
	DefaultWallpaper = "wallpapers/default.png"
)

// HomeFolders are provisioned for every new user
var HomeFolders = []string{"Documents", "Downloads", "Pictures", ".wallpapers"}

// PrivateWallpapers is the per-user wallpaper folder inside a home
const PrivateWallpapers = ".wallpapers"

// StandardDirectories returns all directories that should exist at startup
func StandardDirectories() []string {
	return []string{Home, System, Users, Themes, Local, Wallpapers, Icons}
}

// HomeDir returns the root-relative home of a user
func HomeDir(username string) string {
	return filepath.Join(Home, username)
}

// ProfileFile returns the root-relative profile record of a user
func ProfileFile(username string) string {
	return filepath.Join(Users, username+".json")
}

// ThemeFile returns the root-relative file of an installed theme
func ThemeFile(id string) string {
	return filepath.Join(Themes, id+".xtf.json")
}

// NewRoot validates a VFS root and returns its absolute, clean form.
func NewRoot(root string) (string, error) {
	if root == "" {
		return "", errs.New(errs.InvalidPath, "paths.root", "VFS root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errs.Wrap(errs.InvalidPath, "paths.root", "invalid VFS root", err)
	}
	return filepath.Clean(abs), nil
}

// Resolve resolves clientPath against root and rejects any result that leaves
// root. root must be absolute and clean. It performs no I/O.
//
// Absolute-looking input is normalized against "/" first, so leading ".."
// segments on it collapse away. A relative path that still starts with ".."
// after normalization is an escape and fails with AccessDenied. A path that is
// already inside root is returned unchanged.
func Resolve(root, clientPath string) (string, error) {
	if clientPath == "" || strings.ContainsRune(clientPath, 0) {
		return "", errs.New(errs.InvalidPath, "paths.resolve", "invalid file path provided")
	}

	cleaned := filepath.Clean(clientPath)
	if filepath.IsAbs(cleaned) && within(root, cleaned) {
		return cleaned, nil
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errs.New(errs.AccessDenied, "paths.resolve", "access denied: path escapes the VFS root")
	}

	abs := filepath.Join(root, cleaned)
	if !within(root, abs) {
		return "", errs.New(errs.AccessDenied, "paths.resolve", "access denied: path escapes the VFS root")
	}
	return abs, nil
}

// Within reports whether abs is root or a descendant of root.
func Within(root, abs string) bool {
	return within(root, filepath.Clean(abs))
}

func within(root, abs string) bool {
	if abs == root {
		return true
	}
	if root == string(filepath.Separator) {
		return strings.HasPrefix(abs, root)
	}
	return strings.HasPrefix(abs, root+string(filepath.Separator))
}

// Rel returns abs relative to base using forward slashes, "." for base
// itself. abs must be within base.
func Rel(base, abs string) string {
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "."
	}
	return filepath.ToSlash(rel)
}
