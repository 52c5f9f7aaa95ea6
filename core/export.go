package core

import (
	"bufio"
	"fmt"
	"io"

	"pkt.systems/notetabs/schema"
)

// WriteExport renders tabs as a plain-text document in the given order.
// Each tab becomes a "===== <title> =====" header followed by its content.
func WriteExport(w io.Writer, tabs []schema.Tab) error {
	bw := bufio.NewWriter(w)
	for i, tab := range tabs {
		if _, err := fmt.Fprintf(bw, "===== %s =====\n%s\n\n", schema.DisplayTitle(tab, i), tab.Content); err != nil {
			return err
		}
	}
	return bw.Flush()
}
