package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// WriteJSON writes rows as an indented JSON array. No rows encode as [].
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rows), "export: encode json")
}
