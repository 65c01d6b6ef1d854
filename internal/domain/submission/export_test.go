package submission

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	subs := []Submission{
		{
			ID: 2, FirstName: "Eva", LastName: "Dvořák", Email: "eva@example.com",
			Message:       "Hello, \"team\"\nsecond line",
			AttachmentURL: sql.NullString{String: "/static/uploads/2024/05/01/a_cv.pdf", Valid: true},
			CreatedAt:     time.Date(2024, 5, 1, 12, 30, 5, 0, time.UTC),
		},
		{
			ID: 1, FirstName: "Jan", LastName: "Novák", Email: "jan@example.com", Message: "Ahoj",
			CreatedAt: time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60)),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, subs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"ID", "First Name", "Last Name", "Email", "Message", "Attachment", "Date"}, records[0])
	assert.Equal(t, []string{"2", "Eva", "Dvořák", "eva@example.com", "Hello, \"team\"\nsecond line",
		"/static/uploads/2024/05/01/a_cv.pdf", "2024-05-01 12:30:05"}, records[1])
	assert.Equal(t, []string{"1", "Jan", "Novák", "jan@example.com", "Ahoj", "", "2024-05-01 12:00:00"}, records[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,First Name,Last Name,Email,Message,Attachment,Date\n", buf.String())
}
