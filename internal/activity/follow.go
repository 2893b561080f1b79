package activity

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/work/pkg/models"
)

// Follow calls fn for each event appended after the call, until ctx is
// done. A Clear that shrinks the file restarts reading from its new end.
func (l *Log) Follow(ctx context.Context, agent models.AgentName, fn func(Event)) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create activity directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so creation and rename-on-clear are both seen.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	offset := fileSize(l.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			offset = l.emitFrom(offset, agent, fn)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch activity log: %w", err)
		}
	}
}

// emitFrom delivers complete lines after offset and returns the new offset.
func (l *Log) emitFrom(offset int64, agent models.AgentName, fn func(Event)) int64 {
	f, err := os.Open(l.path)
	if err != nil {
		return offset
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		return info.Size()
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return offset
	}

	// Hold back a trailing partial line until its newline arrives.
	end := len(data)
	for end > 0 && data[end-1] != '\n' {
		end--
	}
	for _, e := range parse(data[:end], agent) {
		fn(e)
	}
	return offset + int64(end)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
