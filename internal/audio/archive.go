package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

const wavExt = ".wav"

// Archive writes recordings as mono 16-bit WAV files under a directory.
type Archive struct {
	fs         afero.Fs
	dir        string
	sampleRate int
	log        *logger.Logger
}

// NewArchive creates an archive rooted at dir on fs.
func NewArchive(fs afero.Fs, dir string, sampleRate int, log *logger.Logger) *Archive {
	return &Archive{fs: fs, dir: dir, sampleRate: sampleRate, log: log}
}

// Save writes chunks to <dir>/<id>.wav and returns the path.
func (a *Archive) Save(ctx context.Context, id string, chunks [][]byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}

	path := filepath.Join(a.dir, id+wavExt)
	f, err := a.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteWAV(f, a.sampleRate, Join(chunks)); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	a.log.Debug("archived %s (%d chunks)", path, len(chunks))
	return path, nil
}

// Load reads an archived recording by name or path and returns its PCM
// and sample rate.
func (a *Archive) Load(name string) ([]byte, int, error) {
	path := name
	if !strings.ContainsRune(name, os.PathSeparator) {
		path = filepath.Join(a.dir, strings.TrimSuffix(name, wavExt)+wavExt)
	}
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	return PCM(buf.Data), int(dec.SampleRate), nil
}

// List returns archived recording names, oldest first.
func (a *Archive) List() ([]string, error) {
	infos, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].ModTime().Before(infos[j].ModTime())
	})
	var names []string
	for _, fi := range infos {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), wavExt) {
			names = append(names, strings.TrimSuffix(fi.Name(), wavExt))
		}
	}
	return names, nil
}

// WriteWAV encodes mono PCM to w.
func WriteWAV(w io.WriteSeeker, sampleRate int, pcm []byte) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           Samples(pcm),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
