package main

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
)

// cacheVersion is part of every cache key. Bump it when the curvature
// computation changes.
const cacheVersion = 1

type CacheKey struct {
	dir string
	key string
}

// MakeCacheKey returns a key for a result computed from args, stored
// under dir.
func MakeCacheKey(dir string, args ...any) *CacheKey {
	h := sha256.New()

	enc := gob.NewEncoder(h)
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			panic("error encoding cache key: " + err.Error())
		}
	}

	return &CacheKey{dir, hex.EncodeToString(h.Sum(nil))}
}

// CurvatureCacheKey keys the curvature of m computed with the given
// options.
func CurvatureCacheKey(dir string, m *Mesh, mass MassType, opts FitOptions) *CacheKey {
	return MakeCacheKey(dir, cacheVersion, m.Verts, m.Faces, mass, opts.withDefaults())
}

func (ck *CacheKey) path() string {
	return filepath.Join(ck.dir, ck.key)
}

func (ck *CacheKey) Load(out any) bool {
	f, err := os.Open(ck.path())
	if err != nil {
		return false
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if dec.Decode(out) != nil {
		return false
	}
	return true
}

func (ck *CacheKey) Save(val any) {
	if err := os.MkdirAll(ck.dir, 0777); err != nil {
		log.Printf("error creating %s: %s", ck.dir, err)
		return
	}
	f, err := os.Create(ck.path())
	if err != nil {
		log.Printf("error saving to cache: %s", err)
		return
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err := enc.Encode(val); err != nil {
		log.Printf("error encoding cache value: %s", err)
	}
}
