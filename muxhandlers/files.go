package muxhandlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
)

// ErrFilesNoDir is returned when FilesConfig.Dir is empty.
var ErrFilesNoDir = errors.New("files: directory must not be empty")

// FilesConfig configures the files handler.
type FilesConfig struct {
	// Dir is the directory files are read from and written to. Required.
	Dir string

	// Prefix is stripped from the request path to get the file name,
	// for example "/files/".
	Prefix string

	// LogFunc is an optional callback invoked when a file cannot be read
	// or written for a reason other than it not existing.
	LogFunc func(req *httpwire.Request, err error)
}

// FilesHandler returns a handler that serves and stores files in Dir.
//
// GET returns the file contents as application/octet-stream, or an empty
// 404 Not Found when the file does not exist. POST writes the request body
// to the file and returns an empty 201 Created, or an empty 500 Internal
// Server Error when the write fails. Names that escape Dir are answered
// with an empty 404. Other methods get an empty 405.
//
// It returns ErrFilesNoDir if Dir is empty.
func FilesHandler(cfg FilesConfig) (mux.Handler, error) {
	if cfg.Dir == "" {
		return nil, ErrFilesNoDir
	}

	root := os.DirFS(cfg.Dir)

	logErr := func(req *httpwire.Request, err error) {
		if cfg.LogFunc != nil {
			cfg.LogFunc(req, err)
		}
	}

	return mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
		name, ok := fileName(req.Path, cfg.Prefix)
		if !ok {
			return httpwire.Empty(http.StatusNotFound)
		}

		switch req.Method {
		case http.MethodGet:
			data, err := fs.ReadFile(root, name)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) && !isDirErr(root, name) {
					logErr(req, err)
				}

				return httpwire.Empty(http.StatusNotFound)
			}

			return httpwire.File(http.StatusOK, data)

		case http.MethodPost:
			path := filepath.Join(cfg.Dir, filepath.FromSlash(name))
			if err := os.WriteFile(path, req.Body, 0o644); err != nil {
				logErr(req, err)
				return httpwire.Empty(http.StatusInternalServerError)
			}

			return httpwire.Empty(http.StatusCreated)

		default:
			return httpwire.Empty(http.StatusMethodNotAllowed)
		}
	}), nil
}

// fileName strips prefix from path and reports whether the remainder is a
// valid file name inside the served directory.
func fileName(path, prefix string) (string, bool) {
	name, ok := strings.CutPrefix(path, prefix)
	if !ok || name == "" || name == "." {
		return "", false
	}

	if !fs.ValidPath(name) || strings.Contains(name, `\`) {
		return "", false
	}

	return name, true
}

func isDirErr(root fs.FS, name string) bool {
	info, err := fs.Stat(root, name)
	return err == nil && info.IsDir()
}
