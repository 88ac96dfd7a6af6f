// Package attachments keeps uploaded evidence files on local disk.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

type Disk struct {
	dir     string
	maxSize int64
}

func NewDisk(dir string, maxSizeMB int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{
		dir:     dir,
		maxSize: int64(maxSizeMB) << 20,
	}, nil
}

// Save writes r under name and returns the reference to store on the record.
func (d *Disk) Save(_ context.Context, name string, r io.Reader) (string, error) {
	ref := filepath.Base(name)
	if ref == "." || ref == string(filepath.Separator) {
		return "", apperr.New(apperr.CodeValidation, "invalid attachment name")
	}
	f, err := os.OpenFile(d.path(ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}

	src := r
	if d.maxSize > 0 {
		src = io.LimitReader(r, d.maxSize+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && d.maxSize > 0 && n > d.maxSize {
		err = apperr.Newf(apperr.CodeValidation, "attachment exceeds %d bytes", d.maxSize).WithMeta("fields", "attachment")
	}
	if err != nil {
		_ = os.Remove(d.path(ref))
		var coded *apperr.Error
		if errors.As(err, &coded) {
			return "", err
		}
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return ref, nil
}

func (d *Disk) Open(_ context.Context, ref string) (io.ReadCloser, *entity.FileMeta, error) {
	f, err := os.Open(d.path(filepath.Base(ref)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.Newf(apperr.CodeNotFound, "attachment %s not found", ref)
		}
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat attachment: %w", err)
	}
	return f, &entity.FileMeta{
		ContentType:   contentType(ref),
		ContentLength: info.Size(),
		Name:          ref,
	}, nil
}

func (d *Disk) Remove(_ context.Context, ref string) error {
	err := os.Remove(d.path(filepath.Base(ref)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) path(ref string) string {
	return filepath.Join(d.dir, ref)
}

func contentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return http.DetectContentType(nil)
}
