// Package build runs the docs page pipeline.
//
// A build discovers notebooks, stages the selected figures, resolves the
// page header, renders the page and publishes it together with the
// .nojekyll marker. Both the one-shot CLI build and the preview server go
// through BuildService.
package build
