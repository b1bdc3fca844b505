package display

import (
	"fmt"
	"io"

	"github.com/backmassage/jconvert/internal/term"
)

// PrintBanner writes the ASCII banner to w, in magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `    _                                _
   (_) ___ ___  _ ____   _____ _ __| |_
   | |/ __/ _ \| '_ \ \ / / _ \ '__| __|
   | | (_| (_) | | | \ V /  __/ |  | |_
  _/ |\___\___/|_| |_|\_/ \___|_|   \__|
 |__/
`)
	if term.Enabled() {
		fmt.Fprintln(w, term.NC)
	}
}
