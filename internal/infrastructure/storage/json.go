package storage

import (
	"github.com/bytedance/sonic"

	"github.com/yasakei/xos/internal/shared/errs"
)

// ReadJSON decodes the JSON record at path into v
func ReadJSON(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.IOError, "storage.json", "corrupt record", err)
	}
	return nil
}

// WriteJSON atomically replaces the record at path with v
func WriteJSON(path string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// CreateJSON writes v to path only if path does not exist yet
func CreateJSON(path string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return CreateExclusive(path, data)
}

func encode(v any) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.IOError, "storage.json", "failed to encode record", err)
	}
	return data, nil
}
