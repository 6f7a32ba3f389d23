package cache

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "cache")

// Path returns the cache file for key under cacheDir.
func Path(cacheDir, key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return filepath.Join(cacheDir, fmt.Sprintf("%016x.gob.sz", h.Sum64()))
}

// LoadWithCache returns the value cached under key, or calls load and stores
// its result. An empty cacheDir disables the cache.
func LoadWithCache[T any](cacheDir, key string, load func() (T, error)) (T, error) {
	if cacheDir == "" {
		return load()
	}
	path := Path(cacheDir, key)
	if v, err := read[T](path); err == nil {
		log.Infof("load %s from cache %s", key, path)
		return v, nil
	} else if !os.IsNotExist(err) {
		log.Warnf("ignore broken cache %s: %v", path, err)
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := write(path, v); err != nil {
		// 写缓存失败不影响结果
		log.Warnf("failed to write cache %s: %v", path, err)
	} else {
		log.Debugf("save %s to cache %s", key, path)
	}
	return v, nil
}

func read[T any](path string) (T, error) {
	var v T
	f, err := os.Open(path)
	if err != nil {
		return v, err
	}
	defer f.Close()
	if err := gob.NewDecoder(snappy.NewReader(f)).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func write[T any](path string, v T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := snappy.NewBufferedWriter(f)
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
