package staleness

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestIsCached(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		output     *time.Time
		inputs     []*time.Time
		wantCached bool
		wantErr    bool
	}{
		{name: "output absent", output: nil, inputs: []*time.Time{ptr(base)}, wantCached: false},
		{name: "input older", output: ptr(base), inputs: []*time.Time{ptr(base.Add(-time.Second))}, wantCached: true},
		{name: "input newer", output: ptr(base), inputs: []*time.Time{ptr(base.Add(time.Second))}, wantCached: false},
		{name: "input same age", output: ptr(base), inputs: []*time.Time{ptr(base)}, wantCached: false},
		{name: "one of many newer", output: ptr(base), inputs: []*time.Time{ptr(base.Add(-time.Hour)), ptr(base.Add(time.Second))}, wantCached: false},
		{name: "no inputs", output: ptr(base), inputs: nil, wantCached: true},
		{name: "input missing", output: ptr(base), inputs: []*time.Time{ptr(base.Add(-time.Second)), nil}, wantErr: true},
		{name: "output and input missing", output: nil, inputs: []*time.Time{nil}, wantCached: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			output := filepath.Join(dir, "out")
			if tt.output != nil {
				touch(t, output, *tt.output)
			}
			inputs := make([]string, len(tt.inputs))
			for i, at := range tt.inputs {
				inputs[i] = filepath.Join(dir, "in", string(rune('a'+i)))
				if at != nil {
					require.NoError(t, os.MkdirAll(filepath.Dir(inputs[i]), 0o750))
					touch(t, inputs[i], *at)
				}
			}

			cached, err := New().IsCached(context.Background(), output, inputs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, vserrors.IsCategory(err, vserrors.CategoryMissingInput))
				e, ok := vserrors.As(err)
				require.True(t, ok)
				assert.Equal(t, inputs[len(inputs)-1], e.Context["path"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCached, cached)
		})
	}
}

func TestIsCached_FirstMissingInputByPosition(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	touch(t, output, time.Now())

	_, err := New().IsCached(context.Background(), output, []string{
		filepath.Join(dir, "first-missing"),
		filepath.Join(dir, "second-missing"),
	})
	require.Error(t, err)
	e, ok := vserrors.As(err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "first-missing"), e.Context["path"])
}

func TestIsCached_UnsupportedMtimeIsStale(t *testing.T) {
	o := NewWithStat(func(string) (fs.FileInfo, error) {
		return nil, errors.ErrUnsupported
	})
	cached, err := o.IsCached(context.Background(), "out", []string{"in"})
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestIsCached_OtherStatErrorIsFilesystemError(t *testing.T) {
	o := NewWithStat(func(string) (fs.FileInfo, error) {
		return nil, fs.ErrPermission
	})
	_, err := o.IsCached(context.Background(), "out", nil)
	require.Error(t, err)
	assert.True(t, vserrors.IsCategory(err, vserrors.CategoryFileSystem))
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestIsCached_StatsConcurrently(t *testing.T) {
	const n = 4
	var mu sync.Mutex
	inFlight, peak := 0, 0
	release := make(chan struct{})
	started := make(chan struct{}, n+1)

	o := NewWithStat(func(string) (fs.FileInfo, error) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()
		started <- struct{}{}
		<-release
		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil, fs.ErrNotExist
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.IsCached(context.Background(), "out", []string{"a", "b", "c"})
	}()
	for range n {
		<-started
	}
	close(release)
	<-done

	assert.Equal(t, n, peak)
}

func ptr(t time.Time) *time.Time { return &t }
