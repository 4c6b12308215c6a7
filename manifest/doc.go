// Package manifest turns a parsed PKGBUILD into the two artifacts of an
// aurora port: the declarative build manifest (build.yaml) and the build
// script (build.sh).
//
// [Extract] reads the package metadata into a [Descriptor]. [NewManifest] and
// [NewScript] derive the artifacts from it, and their Encode methods write
// them out.
package manifest
