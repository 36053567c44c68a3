package registry

// Media types for archives in OCI registries.
const (
	// ArtifactType identifies an archive manifest.
	ArtifactType = "application/vnd.electron.asar.v1"

	// MediaTypeArchive is the media type of the layer holding the archive file.
	MediaTypeArchive = "application/vnd.electron.asar.layer.v1"
)
