// Package vfs implements the file operations offered to the logged-in user.
//
// Every operation resolves the active user's home directory first and then
// resolves the client path against that home, so a request can never reach
// system/ or another user's files. File contents are encrypted with the
// active user's content key on the way in and decrypted on the way out.
//
// Client paths are home-relative. "/notes.txt" and "notes.txt" name the same
// file, and events report paths in the leading-slash form.
//
// Shared assets under wallpapers/ and icons/ are served by Static without a
// session and without encryption.
package vfs
