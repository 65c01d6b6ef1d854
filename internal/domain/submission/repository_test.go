package submission

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"webformular/internal/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &Submission{}))
	return db
}

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo Repository, rows ...Submission) []Submission {
	t.Helper()
	ctx := context.Background()
	for i := range rows {
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
		}
		require.NoError(t, repo.Create(ctx, &rows[i]))
	}
	return rows
}

func ids(subs []Submission) []int64 {
	out := make([]int64, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}

func TestRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rows := seed(t, repo,
		Submission{FirstName: "Jan", LastName: "Novák", Email: "jan@example.com", Message: "Ahoj"},
		Submission{FirstName: "Eva", LastName: "Dvořák", Email: "eva@example.com", Message: "Hi",
			AttachmentURL: sql.NullString{String: "/static/uploads/a.pdf", Valid: true}},
	)

	assert.Greater(t, rows[0].ID, int64(0))
	assert.Greater(t, rows[1].ID, rows[0].ID)

	all, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/static/uploads/a.pdf", all[0].Attachment())
	assert.False(t, all[1].HasAttachment())
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rows := seed(t, repo,
		Submission{FirstName: "A", LastName: "A", Email: "a@example.com", Message: "1"},
		Submission{FirstName: "B", LastName: "B", Email: "b@example.com", Message: "2"},
		Submission{FirstName: "C", LastName: "C", Email: "c@example.com", Message: "3", CreatedAt: baseTime},
	)

	got, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)

	// rows[2] shares rows[0]'s timestamp and wins the tie by id.
	assert.Equal(t, []int64{rows[1].ID, rows[2].ID, rows[0].ID}, ids(got))
}

func TestRepository_ListFilters(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rows := seed(t, repo,
		Submission{FirstName: "Jan", LastName: "Novák", Email: "jan@example.com", Message: "x"},
		Submission{FirstName: "Janet", LastName: "Smith", Email: "janet@corp.test", Message: "x"},
		Submission{FirstName: "Eva", LastName: "Janová", Email: "EVA@Example.com", Message: "x"},
		Submission{FirstName: "100%", LastName: "under_score", Email: "pct@example.com", Message: "x"},
	)

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"empty matches all", Filter{}, []int64{rows[3].ID, rows[2].ID, rows[1].ID, rows[0].ID}},
		{"substring case-insensitive", Filter{FirstName: "JAN"}, []int64{rows[1].ID, rows[0].ID}},
		{"unanchored", Filter{LastName: "nov"}, []int64{rows[2].ID, rows[0].ID}},
		{"email mixed case", Filter{Email: "example.COM"}, []int64{rows[3].ID, rows[2].ID, rows[0].ID}},
		{"criteria are ANDed", Filter{FirstName: "jan", Email: "corp"}, []int64{rows[1].ID}},
		{"no match", Filter{FirstName: "zzz"}, []int64{}},
		{"percent is literal", Filter{FirstName: "%"}, []int64{rows[3].ID}},
		{"underscore is literal", Filter{LastName: "_"}, []int64{rows[3].ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRepository_ListFiltersFoldNonASCII(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rows := seed(t, repo,
		Submission{FirstName: "Šárka", LastName: "Dvořáková", Email: "sarka@example.cz", Message: "x"},
		Submission{FirstName: "Karel", LastName: "ČAPEK", Email: "KAREL@ČAPEK.cz", Message: "x"},
		Submission{FirstName: "šárka", LastName: "Černá", Email: "s.cerna@example.cz", Message: "x"},
	)

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"exact stored value", Filter{FirstName: "Šárka"}, []int64{rows[2].ID, rows[0].ID}},
		{"upper filter", Filter{FirstName: "ŠÁRKA"}, []int64{rows[2].ID, rows[0].ID}},
		{"substring", Filter{FirstName: "árk"}, []int64{rows[2].ID, rows[0].ID}},
		{"lower finds upper", Filter{LastName: "čapek"}, []int64{rows[1].ID}},
		{"title finds upper", Filter{LastName: "Čapek"}, []int64{rows[1].ID}},
		{"email", Filter{Email: "@čapek"}, []int64{rows[1].ID}},
		{"diacritics are significant", Filter{LastName: "capek"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRepository_DeleteByIDs(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	rows := seed(t, repo,
		Submission{FirstName: "A", LastName: "A", Email: "a@example.com", Message: "1"},
		Submission{FirstName: "B", LastName: "B", Email: "b@example.com", Message: "2"},
		Submission{FirstName: "C", LastName: "C", Email: "c@example.com", Message: "3"},
	)

	n, err := repo.DeleteByIDs(ctx, []int64{rows[0].ID, rows[2].ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{rows[1].ID}, ids(left))

	n, err = repo.DeleteByIDs(ctx, []int64{rows[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "deleting missing ids is a no-op")

	n, err = repo.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
