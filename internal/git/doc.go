// Package git reads the local checkout the generator runs in to detect the
// GitHub repository slug (from the origin remote) and the current branch.
package git
