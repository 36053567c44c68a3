package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/meigma/asar"
)

var (
	dirTag  = color.New(color.FgBlue, color.Bold)
	linkTag = color.New(color.FgCyan)
	fileTag = color.New(color.FgGreen)
)

// packProgress prints one line per entry added to an archive.
func packProgress(w io.Writer) asar.ProgressFunc {
	return func(ev asar.ProgressEvent) {
		if ev.Stage != asar.StagePacking {
			return
		}
		switch ev.Kind {
		case asar.KindFolder.String():
			fmt.Fprintf(w, "%s  %s/\n", dirTag.Sprint("[DIR]"), ev.Path)
		case asar.KindSymlink.String():
			fmt.Fprintf(w, "%s %s -> %s\n", linkTag.Sprint("[LINK]"), ev.Path, ev.Link)
		default:
			fmt.Fprintf(w, "%s %s\n", fileTag.Sprint("[FILE]"), ev.Path)
		}
	}
}

// extractProgress prints one line per entry written to disk.
func extractProgress(w io.Writer) asar.ProgressFunc {
	return func(ev asar.ProgressEvent) {
		if ev.Stage != asar.StageExtracting {
			return
		}
		switch ev.Kind {
		case asar.KindFolder.String():
			fmt.Fprintf(w, "%s %s\n", dirTag.Sprint("[D]"), ev.Path)
		case asar.KindSymlink.String():
			fmt.Fprintf(w, "%s %s\n", linkTag.Sprint("[L]"), ev.Path)
		default:
			fmt.Fprintf(w, "%s %s\n", fileTag.Sprint("[F]"), ev.Path)
		}
	}
}
