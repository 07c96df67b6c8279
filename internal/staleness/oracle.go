// Package staleness decides whether a stage output is up to date with respect
// to its inputs by comparing modification times.
package staleness

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
)

// StatFunc returns file metadata; os.Stat by default.
type StatFunc func(name string) (fs.FileInfo, error)

// Oracle is stateless apart from its StatFunc and safe for concurrent use.
type Oracle struct {
	stat StatFunc
}

// New returns an Oracle backed by os.Stat.
func New() *Oracle {
	return &Oracle{stat: os.Stat}
}

// NewWithStat returns an Oracle using stat for metadata lookups.
func NewWithStat(stat StatFunc) *Oracle {
	if stat == nil {
		stat = os.Stat
	}
	return &Oracle{stat: stat}
}

type mtime struct {
	at      time.Time
	missing bool
	err     error
}

// IsCached reports whether output exists and is strictly newer than every
// input. A missing output is not cached. A missing input is a missing_input
// error naming the first absent input. On platforms without modification
// times every stage is treated as stale.
func (o *Oracle) IsCached(ctx context.Context, output string, inputs []string) (bool, error) {
	paths := make([]string, 0, len(inputs)+1)
	paths = append(paths, output)
	paths = append(paths, inputs...)

	mtimes := make([]mtime, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		g.Go(func() error {
			mtimes[i] = o.modTime(p)
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range mtimes {
		if m.err == nil {
			continue
		}
		if errors.Is(m.err, errors.ErrUnsupported) {
			observability.DebugContext(ctx, "Modification times unsupported, treating as stale", logfields.Path(paths[i]))
			return false, nil
		}
		return false, vserrors.FileSystemError("stat", m.err).WithContext("path", paths[i])
	}

	out := mtimes[0]
	if out.missing {
		return false, nil
	}

	cached := true
	for i, in := range mtimes[1:] {
		if in.missing {
			return false, vserrors.MissingInput(inputs[i])
		}
		if !in.at.Before(out.at) {
			cached = false
		}
	}

	observability.DebugContext(ctx, "Staleness checked", logfields.Path(output), logfields.Cached(cached))
	return cached, nil
}

func (o *Oracle) modTime(path string) mtime {
	info, err := o.stat(path)
	switch {
	case err == nil:
		return mtime{at: info.ModTime()}
	case errors.Is(err, fs.ErrNotExist):
		return mtime{missing: true}
	default:
		return mtime{err: err}
	}
}
