package via

import (
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Static serves files from dir under the given URL prefix. Directory
// listings are suppressed: requests resolving to a directory return 404.
//
// Example:
//
//	v.Static("/assets/", "./public")
func (v *V) Static(prefix, dir string) {
	v.StaticFS(prefix, os.DirFS(dir))
}

// StaticFS serves files from fsys under the given URL prefix. Useful with
// go:embed filesystems.
func (v *V) StaticFS(prefix string, fsys fs.FS) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	handler := http.StripPrefix(prefix, http.FileServerFS(noListingFS{fsys}))
	v.mux.Handle("GET "+prefix, handler)
}

// noListingFS hides directories from http.FileServer: opening one
// succeeds for the file server's existence check, but reading the listing
// fails, which the server maps to a 404/500 instead of an index page.
type noListingFS struct {
	fs fs.FS
}

func (n noListingFS) Open(name string) (fs.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		// serve the directory only if an index.html exists
		idx := strings.TrimPrefix(name+"/index.html", "./")
		if _, err := fs.Stat(n.fs, idx); err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
	}
	return f, nil
}
