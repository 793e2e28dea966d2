// Package html provides a Normaliser for HTML uploads. It drops scripts,
// styles and markup, keeps block boundaries as line breaks and decodes
// entities.
package html
