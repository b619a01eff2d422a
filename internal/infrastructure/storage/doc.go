// Package storage provides the disk primitives the VFS is built on.
//
// Files are replaced atomically through a temporary sibling and a rename, so
// readers never see a partially written file. Profile records are created
// with O_EXCL so that two concurrent creators of the same record cannot both
// succeed. JSON records are encoded with sonic.
//
// Every error returned here is classified with the errs package. Messages
// are caller-safe; the disk path is only part of the wrapped cause.
package storage
