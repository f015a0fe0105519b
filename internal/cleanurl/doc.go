// Package cleanurl maps site files to clean URLs and back.
//
// A file path is always root-relative and slash separated. Clean URLs are
// absolute paths without the .html suffix or a literal index segment:
//
//	index.html           -> /
//	articles/index.html  -> /articles/
//	articles/a.html      -> /articles/a
//
// Resolve turns an href found in a file into the same form, and Index
// answers whether a clean URL exists on disk.
package cleanurl
