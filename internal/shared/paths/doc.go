// Package paths provides the VFS directory layout and path containment.
//
// All code that turns a client-supplied path into a disk path goes through
// Resolve. The layout constants are relative to the VFS root.
//
// # Directory Structure
//
//	<root>/
//	  ├── home/<username>/   (per-user encrypted files)
//	  │   ├── Documents/
//	  │   ├── Downloads/
//	  │   ├── Pictures/
//	  │   └── .wallpapers/
//	  ├── system/
//	  │   ├── users/         (one profile record per user)
//	  │   ├── themes/
//	  │   └── user.json      (active session pointer)
//	  ├── wallpapers/        (shared, read-only)
//	  ├── icons/             (shared, read-only)
//	  └── local/
//
// # Usage
//
//	root, err := paths.NewRoot(cfg.VFS.Root)
//	home, err := paths.Resolve(root, paths.HomeDir(username))
//	abs, err := paths.Resolve(home, clientPath)
package paths
