package furaffinity

import (
	"bufio"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	errs "fascraper/pkg/errors"
	"fascraper/pkg/logger"
	"fascraper/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// HTTPDoer is the part of *http.Client the package needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DownloadOptions decide what happens when the destination already exists.
// Setting both is an invalid argument.
type DownloadOptions struct {
	Replace bool
	Skip    bool
}

// sniffLen is how much of a body mimetype needs to identify it
const sniffLen = 3072

// File is a reference to a remote file, optionally backed by a local copy
// after a successful Download.
type File struct {
	url       string
	localPath string
	http      HTTPDoer
	logger    logger.Logger
}

// NewFile creates a File for rawURL fetched with doer, or
// http.DefaultClient when doer is nil.
func NewFile(rawURL string, doer HTTPDoer) *File {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &File{url: rawURL, http: doer, logger: logger.NewNopLogger()}
}

// URL returns the remote URL
func (f *File) URL() string {
	return f.url
}

// Filename returns the last element of the URL path
func (f *File) Filename() string {
	p := f.url
	if u, err := url.Parse(f.url); err == nil && u.Path != "" {
		p = u.Path
	}
	return path.Base(p)
}

// Extension returns the filename extension without the leading dot, or ""
func (f *File) Extension() string {
	return strings.TrimPrefix(path.Ext(f.Filename()), ".")
}

// LocalPath returns where the file was last downloaded to, if anywhere
func (f *File) LocalPath() string {
	return f.localPath
}

func (f *File) open(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFileUnreachable, err, "bad file URL %s", f.url)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFileUnreachable, err, "failed to fetch %s", f.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &errs.Error{
			Type:    errs.ErrorTypeFileUnreachable,
			Message: "failed to fetch " + f.url,
			Code:    resp.StatusCode,
		}
	}
	return resp, nil
}

// remoteReader remembers a failure reading the response body so it can be
// told apart from a failure writing to disk.
type remoteReader struct {
	r   io.Reader
	err error
}

func (rr *remoteReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF {
		rr.err = err
	}
	return n, err
}

// checkDestination reports whether the write should be skipped, or the
// conflict error when the destination exists and no policy allows it.
func checkDestination(dest string, opts DownloadOptions) (bool, error) {
	if !storage.Exists(dest) {
		return false, nil
	}

	policy, err := storage.ResolvePolicy(opts.Replace, opts.Skip)
	if err != nil {
		return false, err
	}
	switch policy {
	case storage.ConflictSkip:
		return true, nil
	case storage.ConflictReplace:
		return false, nil
	default:
		return false, errs.New(errs.ErrorTypeFileAlreadyExists, "%s already exists", dest)
	}
}

// Download saves the file to destination with any extension replaced by the
// URL's. A URL without an extension gets one sniffed from the content. The
// final path is returned; it is remembered for Hash unless the write was
// skipped.
func (f *File) Download(ctx context.Context, destination string, opts DownloadOptions) (string, error) {
	base := strings.TrimSuffix(destination, filepath.Ext(destination))

	ext := f.Extension()
	if ext != "" {
		final := base + "." + ext
		skip, err := checkDestination(final, opts)
		if err != nil {
			return "", err
		}
		if skip {
			logger.LogDownload(f.logger, f.url, final, true, nil)
			return final, nil
		}
	}

	resp, err := f.open(ctx)
	if err != nil {
		logger.LogDownload(f.logger, f.url, base, false, err)
		return "", err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if ext == "" {
		br := bufio.NewReaderSize(resp.Body, sniffLen)
		head, _ := br.Peek(sniffLen)
		ext = strings.TrimPrefix(mimetype.Detect(head).Extension(), ".")
		if ext == "" {
			ext = "bin"
		}
		body = br

		skip, err := checkDestination(base+"."+ext, opts)
		if err != nil {
			return "", err
		}
		if skip {
			logger.LogDownload(f.logger, f.url, base+"."+ext, true, nil)
			return base + "." + ext, nil
		}
	}

	final := base + "." + ext
	src := &remoteReader{r: body}
	if _, err := storage.WriteAtomic(final, src); err != nil {
		logger.LogDownload(f.logger, f.url, final, false, err)
		if src.err != nil {
			return "", errs.Wrap(errs.ErrorTypeFileUnreachable, src.err, "failed to fetch %s", f.url)
		}
		return "", errs.Wrap(errs.ErrorTypeStorage, err, "failed to save %s", final)
	}

	f.localPath = final
	logger.LogDownload(f.logger, f.url, final, false, nil)
	return final, nil
}

// newHash returns the digest for a hashlib-style algorithm name
func newHash(algorithm string) (hash.Hash, error) {
	name := strings.ReplaceAll(strings.ToLower(algorithm), "-", "_")
	switch name {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha224":
		return sha256.New224(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha384":
		return sha512.New384(), nil
	case "sha512":
		return sha512.New(), nil
	case "sha512_224":
		return sha512.New512_224(), nil
	case "sha512_256":
		return sha512.New512_256(), nil
	case "sha3_224":
		return sha3.New224(), nil
	case "sha3_256":
		return sha3.New256(), nil
	case "sha3_384":
		return sha3.New384(), nil
	case "sha3_512":
		return sha3.New512(), nil
	case "blake2b":
		return blake2b.New512(nil)
	case "blake2s":
		return blake2s.New256(nil)
	default:
		return nil, errs.New(errs.ErrorTypeUnsupportedAlgorithm, "unsupported hash algorithm %q", algorithm)
	}
}

// SupportedHashes lists the algorithm names Hash accepts
func SupportedHashes() []string {
	return []string{
		"md5", "sha1", "sha224", "sha256", "sha384", "sha512", "sha512_224", "sha512_256",
		"sha3_224", "sha3_256", "sha3_384", "sha3_512", "blake2b", "blake2s",
	}
}

// Hash digests the file's content. A local copy from a previous Download is
// used when it still exists; otherwise the URL is streamed into the digest
// without being stored.
func (f *File) Hash(ctx context.Context, algorithm string) ([]byte, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return nil, err
	}

	if f.localPath != "" && storage.Exists(f.localPath) {
		file, err := os.Open(f.localPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if _, err := io.Copy(h, file); err != nil {
			return nil, err
		}
		return h.Sum(nil), nil
	}

	resp, err := f.open(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(h, resp.Body); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFileUnreachable, err, "failed to read %s", f.url)
	}
	return h.Sum(nil), nil
}
