// Package normalisers turns fetched bodies into plain text Documents.
// Each subpackage handles one family of MIME types; the Registry picks
// the normaliser for a Content-Type header value.
package normalisers
