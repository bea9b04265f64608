package face

import (
	"sync"

	"github.com/npillmayer/mtext/core/font"
)

// Predefined process-wide faces, each carrying exactly one property. They
// are read-only; layer them over other faces instead of mutating them.
var (
	NormalVideo  *Face
	ReverseVideo *Face
	Underline    *Face
	Medium       *Face
	Bold         *Face
	Italic       *Face
	BoldItalic   *Face

	XXSmall    *Face // ratio 50
	XSmall     *Face // ratio 67
	Small      *Face // ratio 75
	NormalSize *Face // ratio 100
	Large      *Face // ratio 120
	XLarge     *Face // ratio 150
	XXLarge    *Face // ratio 200

	Black   *Face
	White   *Face
	Red     *Face
	Green   *Face
	Blue    *Face
	Cyan    *Face
	Yellow  *Face
	Magenta *Face
)

var predefineOnce sync.Once

func init() {
	predefineOnce.Do(predefine)
}

func single(p Property, v interface{}) *Face {
	f := New()
	f.props[p] = v
	f.predefined = true
	return f
}

func predefine() {
	NormalVideo = single(VideoMode, VideoNormal)
	ReverseVideo = single(VideoMode, VideoReverse)
	Underline = single(HLine, HLineSpec{Style: HLineUnder})
	Medium = single(Weight, font.WeightMedium)
	Bold = single(Weight, font.WeightBold)
	Italic = single(Style, font.StyleItalic)
	BoldItalic = Merge(Bold, Italic)
	BoldItalic.predefined = true

	XXSmall = single(Ratio, 50)
	XSmall = single(Ratio, 67)
	Small = single(Ratio, 75)
	NormalSize = single(Ratio, 100)
	Large = single(Ratio, 120)
	XLarge = single(Ratio, 150)
	XXLarge = single(Ratio, 200)

	Black = single(Foreground, "black")
	White = single(Foreground, "white")
	Red = single(Foreground, "red")
	Green = single(Foreground, "green")
	Blue = single(Foreground, "blue")
	Cyan = single(Foreground, "cyan")
	Yellow = single(Foreground, "yellow")
	Magenta = single(Foreground, "magenta")
}
