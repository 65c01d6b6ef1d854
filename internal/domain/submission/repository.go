package submission

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repository is the record store for submissions.
type Repository interface {
	Create(ctx context.Context, s *Submission) error
	List(ctx context.Context, f Filter) ([]Submission, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// List returns matching submissions, newest first.
func (r *repository) List(ctx context.Context, f Filter) ([]Submission, error) {
	q := r.db.WithContext(ctx).Model(&Submission{})

	for _, cond := range []struct {
		column string
		value  string
	}{
		{"first_name_fold", f.FirstName},
		{"last_name_fold", f.LastName},
		{"email_fold", f.Email},
	} {
		if cond.value == "" {
			continue
		}
		q = q.Where(cond.column+" LIKE ? ESCAPE '\\'", containsPattern(cond.value))
	}

	var subs []Submission
	err := q.Order("created_at DESC").Order("id DESC").Find(&subs).Error
	return subs, err
}

// DeleteByIDs hard-deletes the given ids. Unknown ids are ignored.
func (r *repository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Submission{})
	return res.RowsAffected, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(fold(v)) + "%"
}
