//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"

	"github.com/markkurossi/text/superscript"
)

// IDString renders a 0-based peer index as a superscript suffix on
// "P", e.g. peer 2 becomes "P²", the same convention bmr.Player uses
// for its own id in debug output.
func IDString(index int) string {
	return fmt.Sprintf("P%s", superscript.Itoa(index))
}
