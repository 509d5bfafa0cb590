package audio

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

func TestArchiveSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewArchive(fs, "recordings", 16000, logger.New(logger.LevelOff, nil))

	chunks := [][]byte{PCM([]int{1, -2, 300}), PCM([]int{-4000, 5})}
	path, err := a.Save(context.Background(), "cycle-1", chunks)
	require.NoError(t, err)
	assert.Equal(t, "recordings/cycle-1.wav", path)

	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, ok)

	pcm, rate, err := a.Load("cycle-1")
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, []int{1, -2, 300, -4000, 5}, Samples(pcm))

	// Loading by path works too.
	_, _, err = a.Load(path)
	require.NoError(t, err)
}

func TestArchiveList(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewArchive(fs, "rec", 16000, logger.New(logger.LevelOff, nil))

	names, err := a.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	ctx := context.Background()
	_, err = a.Save(ctx, "first", [][]byte{PCM([]int{1})})
	require.NoError(t, err)
	_, err = a.Save(ctx, "second", [][]byte{PCM([]int{2})})
	require.NoError(t, err)
	require.NoError(t, fs.Chtimes("rec/first.wav", time.Unix(100, 0), time.Unix(100, 0)))
	require.NoError(t, fs.Chtimes("rec/second.wav", time.Unix(200, 0), time.Unix(200, 0)))
	require.NoError(t, afero.WriteFile(fs, "rec/notes.txt", []byte("x"), 0o644))

	names, err = a.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, names)
}

func TestArchiveRejectsGarbage(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewArchive(fs, "rec", 16000, logger.New(logger.LevelOff, nil))
	require.NoError(t, afero.WriteFile(fs, "rec/bad.wav", []byte("not a wav file at all"), 0o644))

	_, _, err := a.Load("bad")
	assert.Error(t, err)

	_, _, err = a.Load("missing")
	assert.Error(t, err)
}

func TestArchiveHonoursCancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewArchive(fs, "rec", 16000, logger.New(logger.LevelOff, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Save(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
