package cookie

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// record is the on-disk form of one cookie.
type record struct {
	Value   string    `json:"value"`
	Signed  bool      `json:"signed,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// Jar is a file-backed cookie store. Values are sealed (or signed) with a
// Codec and survive process restarts until their max-age elapses.
// A Jar is safe for concurrent use within one process.
type Jar struct {
	mu       sync.Mutex
	path     string
	codec    *Codec
	defaults Options
	maxSize  int
	now      func() time.Time
}

// NewJar creates a jar persisted at path. The file is created lazily.
func NewJar(path string, codec *Codec, opts ...JarOption) (*Jar, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if codec == nil {
		return nil, ErrNoSecret
	}

	j := &Jar{
		path:    path,
		codec:   codec,
		maxSize: MaxCookieSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Path returns the jar file location.
func (j *Jar) Path() string {
	return j.path
}

// Set stores value under name. A negative MaxAge deletes the cookie.
func (j *Jar) Set(name, value string, opts ...Option) error {
	options := applyOptions(j.defaults, opts)
	if options.MaxAge < 0 {
		return j.Delete(name)
	}

	var (
		encoded string
		err     error
	)
	if options.SignedOnly {
		encoded = j.codec.Sign(name, value)
	} else {
		encoded, err = j.codec.Seal(name, value)
		if err != nil {
			return err
		}
	}

	if size := len(name) + len(encoded) + 1; size > j.maxSize {
		return ErrCookieTooLarge{Name: name, Size: size, Max: j.maxSize}
	}

	rec := record{Value: encoded, Signed: options.SignedOnly}
	if options.MaxAge > 0 {
		rec.Expires = j.now().Add(time.Duration(options.MaxAge) * time.Second).UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.readLocked()
	if err != nil && !errors.Is(err, ErrJarCorrupt) {
		return err
	}
	j.pruneLocked(records)
	records[name] = rec
	return j.writeLocked(records)
}

// Get returns the decoded value stored under name. Expired cookies are
// reported as ErrExpired. Get never writes; expired records are dropped by
// the next Set or Delete.
func (j *Jar) Get(name string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.readLocked()
	if err != nil {
		return "", err
	}

	rec, ok := records[name]
	if !ok {
		return "", ErrCookieNotFound
	}
	if j.expired(rec) {
		return "", ErrExpired
	}

	if rec.Signed {
		return j.codec.Verify(name, rec.Value)
	}
	return j.codec.Open(name, rec.Value)
}

// Delete removes name from the jar. Deleting a missing cookie is not an error.
func (j *Jar) Delete(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.readLocked()
	if err != nil && !errors.Is(err, ErrJarCorrupt) {
		return err
	}
	pruned := j.pruneLocked(records)
	if _, ok := records[name]; !ok && err == nil && pruned == 0 {
		return nil
	}
	delete(records, name)
	return j.writeLocked(records)
}

func (j *Jar) expired(rec record) bool {
	return !rec.Expires.IsZero() && !j.now().Before(rec.Expires)
}

// pruneLocked drops expired records and returns how many were removed.
func (j *Jar) pruneLocked(records map[string]record) int {
	var n int
	for name, rec := range records {
		if j.expired(rec) {
			delete(records, name)
			n++
		}
	}
	return n
}

// SetJSON marshals v and stores it under name.
func (j *Jar) SetJSON(name string, v any, opts ...Option) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cookie %q: %w", name, err)
	}
	return j.Set(name, string(data), opts...)
}

// GetJSON reads name and unmarshals it into dest.
func (j *Jar) GetJSON(name string, dest any) error {
	data, err := j.Get(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("unmarshal cookie %q: %w", name, err)
	}
	return nil
}

// readLocked loads all records. A missing file is an empty jar. A corrupt
// file yields an empty map together with ErrJarCorrupt so writers can
// overwrite it.
func (j *Jar) readLocked() (map[string]record, error) {
	records := make(map[string]record)

	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records, nil
		}
		return records, fmt.Errorf("read cookie jar: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return make(map[string]record), errors.Join(ErrJarCorrupt, err)
	}
	return records, nil
}

// writeLocked replaces the jar file atomically.
func (j *Jar) writeLocked(records map[string]record) error {
	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cookie jar dir: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal cookie jar: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".jar-*")
	if err != nil {
		return fmt.Errorf("create cookie jar temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cookie jar: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod cookie jar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cookie jar: %w", err)
	}

	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("replace cookie jar: %w", err)
	}
	return nil
}
