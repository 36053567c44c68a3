// Package registry distributes asar archives through OCI registries.
//
// An archive travels as a single-layer OCI artifact: an empty JSON config,
// one layer holding the archive bytes verbatim, and an image manifest tying
// them together under ArtifactType. Push validates the archive before upload
// and Pull validates it again after download, so a registry only ever holds,
// and a caller only ever receives, an archive whose header parses.
//
// Low-level registry access goes through the OCIClient interface, which the
// oras subpackage implements.
package registry
