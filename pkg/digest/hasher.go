package digest

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/spf13/afero"
)

// Algorithm names a supported hash function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
)

// DefaultBufferSize is used when Config.BufferSize is not positive.
const DefaultBufferSize = 4096

// Algorithms lists the supported algorithm names.
func Algorithms() []string {
	return []string{string(SHA256), string(SHA1), string(MD5)}
}

// ParseAlgorithm accepts an algorithm name in any case.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case SHA256, SHA1, MD5:
		return a, nil
	case "":
		return SHA256, nil
	default:
		return "", &UnsupportedAlgorithmError{Name: name}
	}
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New()
	case MD5:
		return md5.New()
	default:
		return sha256.New()
	}
}

// Config configures a Hasher.
type Config struct {
	Algorithm  Algorithm
	BufferSize int

	// KeepGoing records read failures on the Entry instead of rejecting
	// the file.
	KeepGoing bool
}

// Entry is the outcome of hashing one file.
type Entry struct {
	Path   string
	Size   int64
	Digest string
	Err    error
}

// Hasher computes file digests through an afero filesystem.
type Hasher struct {
	fs     afero.Fs
	config Config
	log    logger.Logger

	files     atomic.Int64
	bytesRead atomic.Int64
}

// NewHasher validates config and returns a Hasher reading from fs.
func NewHasher(fs afero.Fs, config Config, log logger.Logger) (*Hasher, error) {
	if log == nil {
		log = logger.NewNop()
	}

	alg, err := ParseAlgorithm(string(config.Algorithm))
	if err != nil {
		return nil, err
	}
	config.Algorithm = alg

	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	return &Hasher{fs: fs, config: config, log: log}, nil
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.config.Algorithm
}

// FilesHashed returns the number of files hashed successfully.
func (h *Hasher) FilesHashed() int64 {
	return h.files.Load()
}

// BytesRead returns the total number of bytes read.
func (h *Hasher) BytesRead() int64 {
	return h.bytesRead.Load()
}

// Sum hashes the file at path. The returned Entry always carries the path;
// on failure its Err matches the returned error.
func (h *Hasher) Sum(ctx context.Context, path string) (Entry, error) {
	entry := Entry{Path: path}

	info, err := h.fs.Stat(path)
	if err != nil {
		h.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Error("Failed to stat file")
		return h.failed(entry, &ReadError{Path: path, Op: "stat", Err: err})
	}
	entry.Size = info.Size()

	if info.Mode().Perm()&0444 == 0 {
		h.log.WithFields(logger.Fields{
			"path": path,
			"mode": info.Mode(),
		}).Warn("File not readable")
		return h.failed(entry, &ReadError{Path: path, Op: "open", Err: os.ErrPermission})
	}

	file, err := h.fs.Open(path)
	if err != nil {
		h.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Error("Failed to open file")
		return h.failed(entry, &ReadError{Path: path, Op: "open", Err: err})
	}
	defer file.Close()

	sum := h.config.Algorithm.newHash()
	buf := make([]byte, h.config.BufferSize)

	h.log.WithFields(logger.Fields{
		"path":       path,
		"size":       entry.Size,
		"bufferSize": len(buf),
	}).Trace("Starting file read")

	for {
		if err := ctx.Err(); err != nil {
			h.log.WithFields(logger.Fields{
				"path":   path,
				"reason": err,
			}).Debug("File read cancelled")
			return h.failed(entry, err)
		}

		n, err := file.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
			h.bytesRead.Add(int64(n))
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			h.log.WithFields(logger.Fields{
				"error": err,
				"path":  path,
			}).Error("Error reading file")
			return h.failed(entry, &ReadError{Path: path, Op: "read", Err: err})
		}
	}

	entry.Digest = hex.EncodeToString(sum.Sum(nil))
	h.files.Add(1)

	h.log.WithFields(logger.Fields{
		"path":      path,
		"algorithm": h.config.Algorithm,
		"digest":    entry.Digest,
	}).Debug("File hashed")

	return entry, nil
}

func (h *Hasher) failed(entry Entry, err error) (Entry, error) {
	entry.Err = err
	return entry, err
}

// UnsupportedAlgorithmError is returned for an unknown algorithm name.
type UnsupportedAlgorithmError struct {
	Name string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported algorithm %q (expected one of %s)", e.Name, strings.Join(Algorithms(), ", "))
}

// ReadError is a failure to read a file's content.
type ReadError struct {
	Path string
	Op   string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
