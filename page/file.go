package page

import (
	"context"
	"fmt"
	"log/slog"
)

// File wraps a file description page with usage and size helpers.
type File struct {
	Ref
	svc    FileService
	logger *slog.Logger
}

// NewFile creates a File helper for ref, which must be in the File
// namespace.
func NewFile(svc FileService, ref Ref, logger *slog.Logger) (*File, error) {
	if ref.Namespace != NamespaceFile {
		return nil, fmt.Errorf("%q is not a file page", ref.Title)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{Ref: ref, svc: svc, logger: logger}, nil
}

// IsUsed reports whether any page displays the file.
func (f *File) IsUsed(ctx context.Context) (bool, error) {
	pages, err := f.UsingPages(ctx)
	if err != nil {
		return false, err
	}
	return len(pages) > 0, nil
}

// Megapixels returns the file's megapixels. ok is false when the
// dimensions are zero or unknown.
func (f *File) Megapixels(ctx context.Context) (mp float64, ok bool, err error) {
	info, err := f.svc.FileInfo(ctx, f.Ref)
	if err != nil {
		return 0, false, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return 0, false, nil
	}
	return float64(info.Width) * float64(info.Height) / 1e6, true, nil
}

// UsingPages returns the pages on which the file is displayed. MediaWiki
// counts file redirects as using their target file, but they are not
// actually displaying it, so redirects pointing back at this file are
// filtered out.
func (f *File) UsingPages(ctx context.Context) ([]Ref, error) {
	usage, err := f.svc.FileUsage(ctx, f.Ref)
	if err != nil {
		return nil, err
	}

	pages := make([]Ref, 0, len(usage))
	for _, u := range usage {
		if u.Namespace != NamespaceFile {
			pages = append(pages, u)
			continue
		}
		isRedirect, err := f.svc.IsRedirect(ctx, u)
		if err != nil {
			// Undeterminable redirect state counts as a real use.
			f.logger.Debug("Could not check file redirect, keeping page",
				"page", u.Title, "error", err)
			pages = append(pages, u)
			continue
		}
		if isRedirect {
			target, err := f.svc.RedirectTarget(ctx, u)
			if err == nil && target == f.Ref {
				continue
			}
		}
		pages = append(pages, u)
	}
	return pages, nil
}
