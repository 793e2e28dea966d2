// Package normalisers extracts plain text from uploads. Each subpackage
// implements driven.Normaliser for one family of formats; Registry picks
// the best match for an upload by MIME type, then by file extension.
package normalisers
