package webui

import (
	"embed"
	"io/fs"
)

//go:embed static
var ourStaticData embed.FS

//go:embed template
var templates embed.FS

var staticData fs.FS

func init() {
	sub, err := fs.Sub(ourStaticData, "static")
	if err != nil {
		panic(err)
	}
	staticData = sub
}
