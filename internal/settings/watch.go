// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package settings

import (
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/thoughtprint/pkg/types"
)

// Snapshot is the result of reloading the settings after a change.
type Snapshot struct {
	Settings types.Settings
	Err      error
}

// Watch calls onChange with freshly loaded settings whenever the file is
// written. The callback runs on viper's watcher goroutine.
func (s *Store) Watch(onChange func(st Snapshot)) {
	v := s.newViper(true)
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logrus.WithField("path", e.Name).Debug("settings changed on disk")
		st, err := s.Load()
		onChange(Snapshot{Settings: st, Err: err})
	})
	v.WatchConfig()
}
