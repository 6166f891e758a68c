package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"bank_reviews/internal/domain"
)

// batchSize bounds the rows per multi-row INSERT.
const batchSize = 500

// MySQL error numbers we translate.
const (
	errNoReferencedRow = 1452
	errCheckViolated   = 3819
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertBanks inserts or refreshes banks by name and returns their ids.
func (r *Repo) UpsertBanks(ctx context.Context, banks []domain.Bank) (map[string]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(banks))
	for _, b := range banks {
		if _, err := tx.ExecContext(ctx, upsertBankSQL, b.Name, valStr(b.AppName)); err != nil {
			return nil, fmt.Errorf("upsert bank %s: %w", b.Name, err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, bankIDSQL, b.Name).Scan(&id); err != nil {
			return nil, fmt.Errorf("bank id %s: %w", b.Name, err)
		}
		ids[b.Name] = id
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// UpsertReviews writes all rows in one transaction. Existing rows keep their
// source fields and only get new annotations.
func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.StoredReview) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	if len(rs) == 0 {
		return res, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	for lo := 0; lo < len(rs); lo += batchSize {
		batch := rs[lo:min(lo+batchSize, len(rs))]

		existing, err := countExisting(ctx, tx, batch)
		if err != nil {
			return domain.UpsertResult{}, err
		}

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*9) // 9 params per row
		for _, rv := range batch {
			values = append(values, reviewPlaceholders)
			args = append(args,
				rv.ID,
				rv.BankID,
				rv.Text,
				rv.Rating,
				rv.Date.Format(domain.DateLayout),
				valStr(rv.SentimentLabel),
				rv.SentimentScore,
				valStr(domain.JoinThemes(rv.Themes)),
				valStr(rv.Source),
			)
		}
		sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return domain.UpsertResult{}, translate(err, batch)
		}
		res.Updated += existing
		res.Inserted += len(batch) - existing
	}
	if err := tx.Commit(); err != nil {
		return domain.UpsertResult{}, err
	}
	return res, nil
}

func countExisting(ctx context.Context, tx *sql.Tx, batch []domain.StoredReview) (int, error) {
	marks := make([]string, len(batch))
	args := make([]any, len(batch))
	for i, rv := range batch {
		marks[i] = "?"
		args[i] = rv.ID
	}
	var n int
	q := existingReviewsPrefix + "(" + strings.Join(marks, ",") + ")"
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// translate maps driver errors onto domain errors.
func translate(err error, batch []domain.StoredReview) error {
	var me *gomysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errNoReferencedRow:
		fk := &domain.ForeignKeyError{Err: err}
		if len(batch) == 1 {
			fk.ReviewID, fk.Bank = batch[0].ID, batch[0].BankName
		}
		return fk
	case errCheckViolated:
		return &domain.ValidationError{Field: "rating", Reason: domain.ReasonRatingOutOfRange, Value: me.Message}
	}
	return err
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.StoredReview, error) {
	var (
		rv     domain.StoredReview
		label  sql.NullString
		score  sql.NullFloat64
		themes sql.NullString
		source sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getReviewSQL, id).Scan(
		&rv.ID,
		&rv.BankID,
		&rv.BankName,
		&rv.Text,
		&rv.Rating,
		&rv.Date,
		&label,
		&score,
		&themes,
		&source,
		&rv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StoredReview{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StoredReview{}, err
	}
	rv.SentimentLabel = label.String
	rv.SentimentScore = score.Float64
	rv.Themes = domain.SplitThemes(themes.String)
	rv.Source = source.String
	return rv, nil
}

func (r *Repo) CountRows(ctx context.Context) (domain.RowCounts, error) {
	var c domain.RowCounts
	err := r.db.QueryRowContext(ctx, countRowsSQL).Scan(&c.Banks, &c.Reviews)
	return c, err
}

// ---- reports ----

// queryRows runs q and scans every row with scan.
func queryRows[T any](ctx context.Context, db *sql.DB, q string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanThemeCount(rows *sql.Rows) (domain.ThemeCount, error) {
	var t domain.ThemeCount
	err := rows.Scan(&t.Bank, &t.Theme, &t.Count)
	return t, err
}

func (r *Repo) BankRanking(ctx context.Context) ([]domain.BankRank, error) {
	return queryRows(ctx, r.db, bankRankingSQL, func(rows *sql.Rows) (domain.BankRank, error) {
		var b domain.BankRank
		err := rows.Scan(&b.Bank, &b.TotalReviews, &b.AvgRating, &b.PositivePercentage, &b.AvgSentimentScore)
		return b, err
	})
}

func (r *Repo) PainPoints(ctx context.Context) ([]domain.ThemeCount, error) {
	return queryRows(ctx, r.db, painPointsSQL, scanThemeCount)
}

func (r *Repo) SentimentByBank(ctx context.Context) ([]domain.SentimentCount, error) {
	return queryRows(ctx, r.db, sentimentByBankSQL, func(rows *sql.Rows) (domain.SentimentCount, error) {
		var s domain.SentimentCount
		var label sql.NullString
		err := rows.Scan(&s.Bank, &label, &s.Count)
		s.Label = label.String
		return s, err
	})
}

func (r *Repo) RatingDistribution(ctx context.Context) ([]domain.RatingCount, error) {
	return queryRows(ctx, r.db, ratingDistributionSQL, func(rows *sql.Rows) (domain.RatingCount, error) {
		var c domain.RatingCount
		err := rows.Scan(&c.Bank, &c.Rating, &c.Count)
		return c, err
	})
}

func (r *Repo) RatingVsSentiment(ctx context.Context) ([]domain.RatingSentiment, error) {
	return queryRows(ctx, r.db, ratingVsSentimentSQL, func(rows *sql.Rows) (domain.RatingSentiment, error) {
		var (
			s     domain.RatingSentiment
			label sql.NullString
			conf  sql.NullFloat64
		)
		err := rows.Scan(&s.Rating, &label, &s.Count, &conf)
		s.Label, s.AvgConfidence = label.String, conf.Float64
		return s, err
	})
}

func (r *Repo) MonthlyTrend(ctx context.Context) ([]domain.MonthlyPoint, error) {
	return queryRows(ctx, r.db, monthlyTrendSQL, func(rows *sql.Rows) (domain.MonthlyPoint, error) {
		var m domain.MonthlyPoint
		err := rows.Scan(&m.Bank, &m.Month, &m.PositivePercentage, &m.ReviewCount)
		return m, err
	})
}

func (r *Repo) OneStarThemes(ctx context.Context, limit int) ([]domain.ThemeCount, error) {
	return queryRows(ctx, r.db, oneStarThemesSQL, scanThemeCount, limit)
}

func (r *Repo) Summary(ctx context.Context) (domain.Summary, error) {
	var (
		s           domain.Summary
		first, last sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, summarySQL).Scan(&s.TotalReviews, &first, &last, &s.DaysWithReview); err != nil {
		return domain.Summary{}, err
	}
	if first.Valid {
		s.Earliest = first.Time.Format(domain.DateLayout)
	}
	if last.Valid {
		s.Latest = last.Time.Format(domain.DateLayout)
	}
	return s, nil
}
