package chart

import (
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
)

const typeface = "Go"

// Charts use the Go font shipped with x/image rather than plot's serif default.
func init() {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	font.DefaultCache.Add(font.Collection{
		{Font: font.Font{Typeface: typeface}, Face: regular},
	})
	plot.DefaultFont = font.Font{Typeface: typeface}
}
