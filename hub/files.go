package hub

import (
	"context"
	"iter"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/gomlx/go-gemma/internal/downloader"
)

// IterFileNames iterate over the file names stored in the repo.
// It doesn't trigger the downloading of the repo, only of the repo info.
func (r *Repo) IterFileNames() iter.Seq2[string, error] {
	// Download info and files.
	err := r.DownloadInfo(false)
	if err != nil {
		// Error downloading: yield error only.
		return func(yield func(string, error) bool) {
			yield("", err)
		}
	}
	return func(yield func(string, error) bool) {
		for _, si := range r.info.Siblings {
			fileName := si.Name
			if path.IsAbs(fileName) || strings.Contains(fileName, "..") {
				yield("", errors.Errorf("model %q contains illegal file name %q -- it cannot be an absolute path, nor contain \"..\"",
					r.ID, fileName))
				return
			}
			if !yield(fileName, nil) {
				return
			}
		}
	}
}

// HasFile returns whether the repo contains the given file.
// It triggers the download of the repo info, if it hasn't been downloaded yet.
func (r *Repo) HasFile(fileName string) bool {
	for name, err := range r.IterFileNames() {
		if err != nil {
			return false
		}
		if name == fileName {
			return true
		}
	}
	return false
}

// cleanRelativeFilePath sanitizes a file name served by a repository, so the
// corresponding local file always stays under the repo's snapshot directory:
// absolute prefixes and attempts to escape with ".." are stripped.
func cleanRelativeFilePath(fileName string) string {
	cleaned := path.Clean("/" + fileName)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		return "."
	}
	return filepath.FromSlash(cleaned)
}

// DownloadFiles downloads the repository files, and return the path to the downloaded files in the cache structure.
// The returned downloadedPaths can be read, but shouldn't be modified, since there may be other programs using the same
// files.
//
// Files already present in the cache are not downloaded again. Up to
// Repo.MaxParallelDownload files are downloaded simultaneously.
func (r *Repo) DownloadFiles(fileNames ...string) (downloadedPaths []string, err error) {
	if len(fileNames) == 0 {
		return
	}
	snapshotDir, err := r.repoSnapshotsDir()
	if err != nil {
		return nil, err
	}

	downloadedPaths = make([]string, len(fileNames))
	var (
		wg       sync.WaitGroup
		muErr    sync.Mutex
		firstErr error
	)
	sem := downloader.NewSemaphore(r.MaxParallelDownload)
	ctx := context.Background()
	numFetched := 0
	for ii, fileName := range fileNames {
		filePath := path.Join(snapshotDir, cleanRelativeFilePath(fileName))
		downloadedPaths[ii] = filePath
		if fileExists(filePath) {
			continue
		}
		url, urlErr := r.FileURL(fileName)
		if urlErr != nil {
			return nil, urlErr
		}
		numFetched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.Acquire()
			defer sem.Release()
			if err := r.lockedDownload(ctx, url, filePath, false); err != nil {
				muErr.Lock()
				defer muErr.Unlock()
				if firstErr == nil {
					firstErr = errors.WithMessagef(err, "while downloading %q from repo %q", fileName, r.ID)
				}
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	if r.Verbosity >= 1 && numFetched > 0 {
		var totalSize uint64
		for _, filePath := range downloadedPaths {
			if fi, statErr := os.Stat(filePath); statErr == nil {
				totalSize += uint64(fi.Size())
			}
		}
		log.Printf("Downloaded %d file(s) from %q (%s in cache)", numFetched, r.ID, humanize.Bytes(totalSize))
	}
	return
}

// DownloadFile is a shortcut to DownloadFiles with only one file.
func (r *Repo) DownloadFile(fileName string) (downloadedPath string, err error) {
	res, err := r.DownloadFiles(fileName)
	if err != nil {
		return "", err
	}
	return res[0], nil
}
