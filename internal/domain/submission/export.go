package submission

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ExportDateLayout is the timestamp layout used in CSV exports (UTC).
const ExportDateLayout = "2006-01-02 15:04:05"

var exportHeader = []string{"ID", "First Name", "Last Name", "Email", "Message", "Attachment", "Date"}

// WriteCSV writes subs as CSV with a header row. Fields are quoted as
// needed, so commas, quotes and line breaks in messages survive.
func WriteCSV(w io.Writer, subs []Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for i := range subs {
		s := &subs[i]
		if err := cw.Write([]string{
			strconv.FormatInt(s.ID, 10),
			s.FirstName,
			s.LastName,
			s.Email,
			s.Message,
			s.Attachment(),
			s.CreatedAt.UTC().Format(ExportDateLayout),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
