// Package lib embeds the in-language standard library source so it ships
// inside the compiled binary rather than being read from disk at runtime.
// Grounded on the teacher's //go:embed maggie.image in cmd/mag/main.go,
// which embeds a prebuilt image the same way; this embeds source text
// compiled fresh by each pkg/quillctx.Context instead of a serialized one.
package lib

import _ "embed"

//go:embed stdlib.scm
var StdlibSource string
