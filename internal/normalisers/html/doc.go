// Package html provides a Normaliser for HTML documents.
// It drops scripts, styles and navigation, turns block elements into
// paragraph breaks and decodes entities.
package html
