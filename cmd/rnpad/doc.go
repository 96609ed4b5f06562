// Package main is a headless client for the playground builder.
//
// It reads a snippet from a file or stdin, submits it to the builder under
// the identity kept in the user's config directory, and prints the preview
// URL. A failed build prints the same label the editor shows and exits 1.
//
// Usage:
//
//	rnpad run --builder http://localhost:5000/runcode App.js
//	cat App.js | rnpad run --device tablet --json
//	rnpad id
//	rnpad devices
package main
