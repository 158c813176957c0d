package server

import _ "embed"

// indexPage is the single-page UI served at "/".
//
//go:embed static/index.html
var indexPage []byte
