package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

// Export writes records to w under the canonical header, one line per
// record, in the order given.
func Export(w io.Writer, records []contact.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Name, r.Email, r.Phone, r.DateOfBirth, r.Age}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
