/*
Package http exposes the VFS and identity services over a JSON API.

Every route lives under /api. Failures are written as

	{"error": "<client-safe message>", "kind": "<error kind>"}

with the status chosen by the error kind:

	invalid_path       400
	unauthorized       401
	access_denied      403
	not_found          404
	conflict           409
	decryption_failed  422
	io_error           500

Reads of files stored as data URIs return the raw bytes with their MIME
type instead of JSON. Static assets carry an ETag and honor If-None-Match.
*/
package http
