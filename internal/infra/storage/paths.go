package storage

import (
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/domain/configuration"
)

const (
	metadataFile = "metadata.json"
	versionsDir  = "versions"
	dataFile     = "data.json"
	schemaFile   = "schema.json"
)

func metadataPath(key configuration.Key) blobstore.Path {
	return blobstore.Join(key.Application, key.Environment, key.ConfigName, metadataFile)
}

func dataPath(key configuration.Key, version configuration.Version) blobstore.Path {
	return blobstore.Join(key.Application, key.Environment, key.ConfigName, versionsDir, string(version), dataFile)
}

func schemaPath(key configuration.Key, version configuration.Version) blobstore.Path {
	return blobstore.Join(key.Application, key.Environment, key.ConfigName, versionsDir, string(version), schemaFile)
}

// keyFromMetadataPath rebuilds a Key out of the first three segments of a metadata path.
//
// Anything that isn't a metadata path is rejected.
func keyFromMetadataPath(path blobstore.Path) (configuration.Key, bool) {
	segments := path.Segments()
	if len(segments) < 4 || segments[len(segments)-1] != metadataFile {
		return configuration.Key{}, false
	}
	return configuration.Key{
		Application: segments[0],
		Environment: segments[1],
		ConfigName:  segments[2],
	}, true
}
