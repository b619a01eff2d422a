package vfs

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/credentials"
	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/infrastructure/storage"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
)

// ReadResult is a decrypted file. Files stored as a base64 data URI come
// back as raw bytes with their MIME type; everything else as text.
type ReadResult struct {
	Content  string
	Data     []byte
	MimeType string
}

// Binary reports whether the file was stored as a data URI
func (r *ReadResult) Binary() bool {
	return r.MimeType != ""
}

// Read decrypts the file at path
func (s *Service) Read(ctx context.Context, path string) (res *ReadResult, err error) {
	defer s.observe(ctx, "read", time.Now(), &err)

	t, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	sealed, err := storage.ReadFile(t.abs)
	if err != nil {
		return nil, err
	}
	plaintext, err := credentials.Decrypt(string(sealed), t.key)
	if err != nil {
		return nil, err
	}

	if mime, payload, ok := parseDataURI(string(plaintext)); ok {
		return &ReadResult{Data: payload, MimeType: mime}, nil
	}
	return &ReadResult{Content: string(plaintext)}, nil
}

// Write encrypts content and replaces the file at path
func (s *Service) Write(ctx context.Context, path, content string) (err error) {
	defer s.observe(ctx, "write", time.Now(), &err)

	t, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	if err := s.store(t, content); err != nil {
		return err
	}

	s.publish(newEvent(EventWrite, t, tree.File))
	return nil
}

// Upload stores a base64 data URI at path and returns the client path of the
// stored file
func (s *Service) Upload(ctx context.Context, path, dataURI string) (rel string, err error) {
	defer s.observe(ctx, "upload", time.Now(), &err)

	mime, payload, ok := parseDataURI(dataURI)
	if !ok {
		return "", errs.New(errs.InvalidPath, "vfs.upload", "upload must be a base64 data URI")
	}
	if refined := refineMIME(mime, payload); refined != mime {
		dataURI = FormatDataURI(refined, payload)
	}

	t, err := s.resolve(ctx, path)
	if err != nil {
		return "", err
	}
	if err := s.store(t, dataURI); err != nil {
		return "", err
	}

	s.publish(newEvent(EventUpload, t, tree.File))
	return t.client(), nil
}

// Create makes an empty file or a directory at path
func (s *Service) Create(ctx context.Context, path string, kind tree.Kind) (err error) {
	defer s.observe(ctx, "create", time.Now(), &err)

	if kind != tree.File && kind != tree.Directory {
		return errs.New(errs.InvalidPath, "vfs.create", "type must be file or directory")
	}

	t, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}

	if kind == tree.Directory {
		err = storage.EnsureDir(t.abs)
	} else {
		err = s.store(t, "")
	}
	if err != nil {
		return err
	}

	s.publish(newEvent(EventCreate, t, kind))
	return nil
}

// Delete removes path recursively. A missing path is not an error.
func (s *Service) Delete(ctx context.Context, path string) (err error) {
	defer s.observe(ctx, "delete", time.Now(), &err)

	t, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	if t.isHome() {
		return errs.New(errs.AccessDenied, "vfs.delete", "cannot delete the home directory")
	}

	if err := storage.RemoveAll(t.abs); err != nil {
		return err
	}

	s.publish(newEvent(EventDelete, t, ""))
	return nil
}

// Rename moves oldPath to newPath within the home directory
func (s *Service) Rename(ctx context.Context, oldPath, newPath string) (err error) {
	defer s.observe(ctx, "rename", time.Now(), &err)

	from, err := s.resolve(ctx, oldPath)
	if err != nil {
		return err
	}
	to, err := s.resolve(ctx, newPath)
	if err != nil {
		return err
	}
	if from.isHome() || to.isHome() {
		return errs.New(errs.AccessDenied, "vfs.rename", "cannot rename the home directory")
	}

	if err := storage.Move(from.abs, to.abs); err != nil {
		return err
	}

	ev := newEvent(EventRename, to, "")
	ev.OldPath = from.client()
	s.publish(ev)

	s.logger.Debug("renamed", tracing.Field(ctx), zap.String("from", ev.OldPath), zap.String("to", ev.Path))
	return nil
}

// store encrypts plaintext for t's user and atomically replaces t
func (s *Service) store(t *target, plaintext string) error {
	if info, err := os.Stat(t.abs); err == nil && info.IsDir() {
		return errs.New(errs.InvalidPath, "vfs.store", "path is a directory")
	}
	if t.isHome() {
		return errs.New(errs.InvalidPath, "vfs.store", "path is a directory")
	}

	sealed, err := credentials.Encrypt([]byte(plaintext), t.key)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(t.abs, []byte(sealed))
}
