// Package audio resolves sentence recordings to playable handles.
package audio

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// DirResolver finds pre-recorded files laid out as <Dir>/<lang>/<id>.mp3.
type DirResolver struct {
	Dir string
}

// Resolve returns the recording's path when the file exists.
func (r DirResolver) Resolve(sentenceID int64, lang string) (string, bool) {
	if r.Dir == "" {
		return "", false
	}
	path := filepath.Join(r.Dir, lang, fileName(sentenceID))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// URLResolver builds <Base>/<lang>/<id>.mp3 without checking that it exists.
type URLResolver struct {
	Base string
}

// Resolve returns the recording's URL.
func (r URLResolver) Resolve(sentenceID int64, lang string) (string, bool) {
	if r.Base == "" {
		return "", false
	}
	u, err := url.JoinPath(r.Base, lang, fileName(sentenceID))
	if err != nil {
		return "", false
	}
	return u, true
}

// Resolver is satisfied by DirResolver, URLResolver and Chain.
type Resolver interface {
	Resolve(sentenceID int64, lang string) (string, bool)
}

// Chain tries each resolver in order and returns the first handle found.
type Chain []Resolver

func (c Chain) Resolve(sentenceID int64, lang string) (string, bool) {
	for _, r := range c {
		if h, ok := r.Resolve(sentenceID, lang); ok {
			return h, true
		}
	}
	return "", false
}

func fileName(id int64) string {
	return strconv.FormatInt(id, 10) + ".mp3"
}
