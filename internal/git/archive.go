package git

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// writeTree materializes every file of tree under target.
func writeTree(ctx context.Context, tree *object.Tree, target string) error {
	fs, err := archiveFilesystem(target)
	if err != nil {
		return err
	}

	return tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Mode == filemode.Symlink {
			dest, err := f.Contents()
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", f.Name, err)
			}
			return writeSymlink(fs, f.Name, dest)
		}

		mode, err := f.Mode.ToOSFileMode()
		if err != nil {
			return fmt.Errorf("mode of %s: %w", f.Name, err)
		}
		r, err := f.Reader()
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name, err)
		}
		defer r.Close()
		return writeFile(fs, f.Name, mode, r)
	})
}

// extractTar materializes a tar stream, as produced by "git archive", under
// target.
func extractTar(ctx context.Context, r io.Reader, target string) error {
	fs, err := archiveFilesystem(target)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		name, err := archiveEntryName(hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if name == "" {
				continue
			}
			if err := fs.MkdirAll(name, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeFile(fs, name, os.FileMode(hdr.Mode).Perm(), tr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(fs, name, hdr.Linkname); err != nil {
				return err
			}
		default:
			// pax global header carrying the commit id, among others
		}
	}
}

func archiveFilesystem(target string) (billy.Filesystem, error) {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory %s: %w", target, err)
	}
	return osfs.New(target), nil
}

// archiveEntryName cleans an archive path and rejects entries escaping the
// target directory.
func archiveEntryName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if strings.HasPrefix(name, "/") || strings.Contains("/"+name+"/", "/../") {
		return "", errs.Operation("archive", "entry escapes target directory: "+name, nil)
	}
	return clean, nil
}

func writeFile(fs billy.Filesystem, name string, mode os.FileMode, r io.Reader) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	w, err := fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return w.Close()
}

func writeSymlink(fs billy.Filesystem, name, dest string) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	_ = fs.Remove(name)
	if err := fs.Symlink(dest, name); err != nil {
		return fmt.Errorf("creating symlink %s: %w", name, err)
	}
	return nil
}
