package device

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jypelle/mifasol/restApiV1"
	"github.com/jypelle/mifasol/restClientV1"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/sirupsen/logrus"
)

const MifasolScheme = "mifasol:"

// Resource is an opened audio resource
type Resource struct {
	Content io.ReadCloser
	// Name is used to guess the format when the content can't be sniffed
	Name string
	// CacheKey changes when the content changes
	CacheKey string
}

// ResourceResolver opens local files and songs of a mifasol server (mifasol:<songId>)
type ResourceResolver struct {
	mifasolClient *restClientV1.RestClient
}

func NewResourceResolver(mifasolParam *config.MifasolParam) *ResourceResolver {
	resolver := ResourceResolver{}

	if mifasolParam != nil {
		var err error
		resolver.mifasolClient, err = restClientV1.NewRestClient(mifasolParam, false)
		if err != nil {
			logrus.Warningf("Failed to create mifasol client: %v", err)
			resolver.mifasolClient = nil
		} else {
			logrus.Infof("Mifasol songs available from %s:%d", mifasolParam.Hostname, mifasolParam.Port)
		}
	}

	return &resolver
}

func IsMifasolLocator(locator string) bool {
	return strings.HasPrefix(locator, MifasolScheme)
}

// Exists reports whether a local file is still present. Remote songs are checked when opened.
func (r *ResourceResolver) Exists(locator string) bool {
	if IsMifasolLocator(locator) {
		return true
	}
	info, err := os.Stat(locator)
	return err == nil && !info.IsDir()
}

func (r *ResourceResolver) Resolve(locator string) (*Resource, error) {
	if IsMifasolLocator(locator) {
		return r.resolveSong(restApiV1.SongId(strings.TrimPrefix(locator, MifasolScheme)))
	}
	return r.resolveFile(locator)
}

func (r *ResourceResolver) resolveFile(path string) (*Resource, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("unable to access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrResourceNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}

	return &Resource{
		Content:  file,
		Name:     path,
		CacheKey: fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()),
	}, nil
}

func (r *ResourceResolver) resolveSong(songId restApiV1.SongId) (*Resource, error) {
	if r.mifasolClient == nil {
		return nil, fmt.Errorf("%w: no mifasol server for song %s", ErrResourceNotFound, songId)
	}

	song, cliErr := r.mifasolClient.ReadSong(songId)
	if cliErr != nil {
		return nil, fmt.Errorf("%w: unknown mifasol song %s: %v", ErrResourceNotFound, songId, cliErr)
	}
	songContent, _, cliErr := r.mifasolClient.ReadSongContent(songId)
	if cliErr != nil {
		return nil, fmt.Errorf("%w: unable to read mifasol song %s: %v", ErrResourceNotFound, songId, cliErr)
	}

	logrus.Debugf("Streaming mifasol song \"%s\"", song.Name)

	return &Resource{
		Content:  songContent,
		Name:     song.Name,
		CacheKey: MifasolScheme + string(songId),
	}, nil
}
