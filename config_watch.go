package ember

import "github.com/fsnotify/fsnotify"

// WatchLogLevel watches the key=value config file at path and, on every
// write to it, reloads log_level and applies it to logger without
// restarting the server. It reuses the same fsnotify dependency the asset
// coffer watches files with. The returned watcher's lifetime is the
// caller's to manage; closing it stops the reload goroutine. A config file
// that fails to parse on a given write is ignored, leaving logger's level
// unchanged until a subsequent write parses successfully.
func WatchLogLevel(path string, logger *Logger) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Write == 0 {
					continue
				}
				cfg, _, err := LoadKeyValueConfig(path)
				if err != nil {
					continue
				}
				logger.SetLevel(cfg.LogLevel)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}
