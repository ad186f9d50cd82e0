// Package notebooks discovers notebook files and builds the external links
// used to view and download them.
package notebooks
