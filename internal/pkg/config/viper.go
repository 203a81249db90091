package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override file values,
// e.g. MARGAMFLOW_HASH_PBKDF2_ITERATIONS overrides hash.pbkdf2.iterations.
const EnvPrefix = "MARGAMFLOW"

// Defaults are registered on every Viper so a missing or partial config file
// still yields a working setup.
var Defaults = map[string]any{
	"app.name":                                     "margamflow",
	"log.level":                                    "info",
	"log.mask_fields":                              "password,confirm_password,new_password,answers,secret,salt,hash",
	"hash.pbkdf2.iterations":                       65536,
	"hash.pbkdf2.key_length":                       32,
	"hash.pbkdf2.salt_length":                      16,
	"hash.pbkdf2.prf":                              "sha256",
	"database.sqlite.path":                         "margamflow.db",
	"database.sqlite.busy_timeout_seconds":         5,
	"modules.account.enabled":                      true,
	"modules.account.min_correct_recovery_answers": 2,
	"modules.account.max_parallel_hash":            3,
	"instrument.enabled":                           false,
	"instrument.service_version":                   "dev",
	"instrument.env":                               "local",
	"instrument.otlp_endpoint":                     "localhost:4317",
	"instrument.otlp_secure":                       false,
	"instrument.trace_sample_ratio":               1.0,
	"instrument.metric_interval_seconds":           60,
}

// Viper is a Config implementation backed by github.com/spf13/viper.
//
// When loaded from a file the file is watched and re-read on change; getters
// always see the latest successfully parsed content.
type Viper struct {
	mu      sync.RWMutex
	v       *viper.Viper
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config file type is inferred by Viper from the filename extension. An
// empty path skips the file and uses defaults plus environment only.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	if strings.TrimSpace(pathFile) == "" {
		return &Viper{v: v}, nil
	}

	filename := path.Base(pathFile)
	filePath := path.Dir(pathFile)

	configName := path.Base(filename[:len(filename)-len(path.Ext(filename))])

	v.AddConfigPath(filePath)
	v.SetConfigName(configName)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	vc := &Viper{v: v}
	if err := vc.watch(pathFile); err != nil {
		return nil, err
	}

	return vc, nil
}

// watch re-reads the file when it is written or replaced. The parent
// directory is watched so editors that swap the file on save are seen too.
func (vc *Viper) watch(pathFile string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(pathFile)); err != nil {
		_ = w.Close()
		return err
	}

	target := filepath.Clean(pathFile)
	vc.watcher = w
	vc.done = make(chan struct{})

	go func() {
		defer close(vc.done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					vc.reload(pathFile)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("config watcher failed", "path", pathFile, "err", err)
			}
		}
	}()

	return nil
}

func (vc *Viper) reload(pathFile string) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if err := vc.v.ReadInConfig(); err != nil {
		slog.Error("config reload failed", "path", pathFile, "err", err)
		return
	}
	slog.Info("config success reloaded", "path", pathFile)
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetInt(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetBool(key)
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetString(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetArray returns the value for key split by commas, dropping blank elements.
func (vc *Viper) GetArray(key string) []string {
	raw := strings.Split(vc.GetString(key), ",")
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// Close stops the file watcher, if any, and waits for it to exit.
func (vc *Viper) Close() error {
	if vc.watcher == nil {
		return nil
	}

	err := vc.watcher.Close()
	<-vc.done

	return err
}
