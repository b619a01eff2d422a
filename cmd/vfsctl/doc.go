// Command vfsctl is a command line client for the xos VFS server.
//
// Usage:
//
//	vfsctl users create alice -p secret
//	vfsctl login alice -p secret
//	vfsctl put /Documents/notes.txt "hello"
//	vfsctl cat /Documents/notes.txt
//	vfsctl upload ./photo.jpg /Pictures/photo.jpg
//	vfsctl tree
//	vfsctl watch
//
// The password may also come from $XOS_PASSWORD.
package main
