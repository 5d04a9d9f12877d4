package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	ListCourses(ctx context.Context, f model.CourseFilter) ([]model.Course, int, error)
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	GetCoursesByIDs(ctx context.Context, courseIDs []string) ([]model.Course, error)
	GetCoursesByInstructor(ctx context.Context, instructorID string) ([]model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) error
	UpdateCourse(ctx context.Context, c *model.Course) error
	SetStatus(ctx context.Context, courseID, status string) error
	SetThumbnail(ctx context.Context, courseID, path string) error
	AdjustEnrollmentCount(ctx context.Context, courseID string, delta int) error
	RefreshRating(ctx context.Context, courseID string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Recommend returns published courses sharing a category with the user's
	// enrollments or wishlist, excluding courses the user owns or teaches.
	Recommend(ctx context.Context, userID string, limit int) ([]model.Course, error)
	// Popular returns the most enrolled published courses not owned by userID.
	Popular(ctx context.Context, userID string, limit int) ([]model.Course, error)
}

type courseRepo struct {
	pool *pgxpool.Pool
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(pool *pgxpool.Pool) CourseRepository {
	return &courseRepo{pool: pool}
}

const courseColumns = `c.id, c.instructor_id, c.category_id, c.title, c.slug, c.description, c.level, c.language,
	c.price_cents, c.sale_price_cents, c.thumbnail_path, c.status, c.rating_avg::float8, c.rating_count,
	c.enrollment_count, c.created_at, c.updated_at`

// effectivePriceExpr mirrors model.Course.EffectivePrice.
const effectivePriceExpr = `CASE WHEN c.sale_price_cents IS NOT NULL AND c.sale_price_cents < c.price_cents THEN c.sale_price_cents ELSE c.price_cents END`

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	err := row.Scan(
		&c.ID,
		&c.InstructorID,
		&c.CategoryID,
		&c.Title,
		&c.Slug,
		&c.Description,
		&c.Level,
		&c.Language,
		&c.PriceCents,
		&c.SalePriceCents,
		&c.ThumbnailPath,
		&c.Status,
		&c.RatingAvg,
		&c.RatingCount,
		&c.EnrollmentCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCourses(rows pgx.Rows) ([]model.Course, error) {
	defer rows.Close()
	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

func sortClause(sort string) string {
	switch sort {
	case model.SortPriceAsc:
		return effectivePriceExpr + ` ASC, c.created_at DESC`
	case model.SortPriceDesc:
		return effectivePriceExpr + ` DESC, c.created_at DESC`
	case model.SortRating:
		return `c.rating_avg DESC, c.rating_count DESC, c.created_at DESC`
	case model.SortPopular:
		return `c.enrollment_count DESC, c.created_at DESC`
	default:
		return `c.created_at DESC`
	}
}

// ListCourses returns one page of published courses matching f and the total match count
func (r *courseRepo) ListCourses(ctx context.Context, f model.CourseFilter) ([]model.Course, int, error) {
	where := []string{`c.status = 'published'`}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := `courses c`
	if f.CategorySlug != "" {
		from += ` JOIN categories cat ON cat.id = c.category_id`
		where = append(where, `cat.slug = `+arg(f.CategorySlug))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		where = append(where, `(c.title ILIKE `+p+` OR c.description ILIKE `+p+`)`)
	}
	if f.Level != "" {
		where = append(where, `c.level = `+arg(f.Level))
	}
	if f.InstructorID != "" {
		where = append(where, `c.instructor_id = `+arg(f.InstructorID))
	}
	if f.FreeOnly {
		where = append(where, effectivePriceExpr+` = 0`)
	}
	if f.MinPrice != nil {
		where = append(where, effectivePriceExpr+` >= `+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, effectivePriceExpr+` <= `+arg(*f.MaxPrice))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQ := `SELECT COUNT(*) FROM ` + from + ` WHERE ` + cond
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting courses: %w", err)
	}

	limit, offset := arg(f.Limit), arg(f.Offset)
	query := `SELECT ` + courseColumns + ` FROM ` + from + ` WHERE ` + cond +
		` ORDER BY ` + sortClause(f.Sort) + ` LIMIT ` + limit + ` OFFSET ` + offset
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing courses: %w", err)
	}
	courses, err := collectCourses(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning courses: %w", err)
	}
	return courses, total, nil
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	c, err := scanCourse(r.pool.QueryRow(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting course %s: %w", courseID, err)
	}
	return c, nil
}

func (r *courseRepo) GetCoursesByIDs(ctx context.Context, courseIDs []string) ([]model.Course, error) {
	if len(courseIDs) == 0 {
		return []model.Course{}, nil
	}
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, query, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("getting courses by ids: %w", err)
	}
	return collectCourses(rows)
}

func (r *courseRepo) GetCoursesByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.instructor_id = $1 ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("getting courses for instructor %s: %w", instructorID, err)
	}
	return collectCourses(rows)
}

// CreateCourse inserts a new course and fills in generated fields
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses AS c (instructor_id, category_id, title, slug, description, level, language, price_cents, sale_price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + courseColumns
	created, err := scanCourse(r.pool.QueryRow(ctx, query,
		c.InstructorID, c.CategoryID, c.Title, c.Slug, c.Description, c.Level, c.Language,
		c.PriceCents, c.SalePriceCents, c.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating course: %w", err)
	}
	*c = *created
	return nil
}

// UpdateCourse persists the editable fields of a course
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses AS c
		SET category_id = $2, title = $3, description = $4, level = $5, language = $6,
			price_cents = $7, sale_price_cents = $8, updated_at = NOW()
		WHERE c.id = $1
		RETURNING ` + courseColumns
	updated, err := scanCourse(r.pool.QueryRow(ctx, query,
		c.ID, c.CategoryID, c.Title, c.Description, c.Level, c.Language, c.PriceCents, c.SalePriceCents,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("updating course %s: %w", c.ID, err)
	}
	*c = *updated
	return nil
}

func (r *courseRepo) SetStatus(ctx context.Context, courseID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE courses SET status = $2, updated_at = NOW() WHERE id = $1`, courseID, status)
	if err != nil {
		return fmt.Errorf("setting status of course %s: %w", courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepo) SetThumbnail(ctx context.Context, courseID, path string) error {
	_, err := r.pool.Exec(ctx, `UPDATE courses SET thumbnail_path = $2, updated_at = NOW() WHERE id = $1`, courseID, path)
	if err != nil {
		return fmt.Errorf("setting thumbnail of course %s: %w", courseID, err)
	}
	return nil
}

func (r *courseRepo) AdjustEnrollmentCount(ctx context.Context, courseID string, delta int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses SET enrollment_count = GREATEST(enrollment_count + $2, 0) WHERE id = $1`,
		courseID, delta)
	if err != nil {
		return fmt.Errorf("adjusting enrollment count of course %s: %w", courseID, err)
	}
	return nil
}

// RefreshRating recomputes the rating aggregate from reviews
func (r *courseRepo) RefreshRating(ctx context.Context, courseID string) error {
	const q = `
		UPDATE courses
		SET rating_avg = COALESCE((SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE course_id = $1), 0),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE course_id = $1)
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, q, courseID); err != nil {
		return fmt.Errorf("refreshing rating of course %s: %w", courseID, err)
	}
	return nil
}

func (r *courseRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking slug %s: %w", slug, err)
	}
	return exists, nil
}

func (r *courseRepo) Recommend(ctx context.Context, userID string, limit int) ([]model.Course, error) {
	query := `
		WITH interests AS (
			SELECT c2.category_id FROM enrollments e JOIN courses c2 ON c2.id = e.course_id WHERE e.user_id = $1
			UNION
			SELECT c3.category_id FROM wishlist w JOIN courses c3 ON c3.id = w.course_id WHERE w.user_id = $1
		)
		SELECT ` + courseColumns + `
		FROM courses c
		WHERE c.status = 'published'
		  AND c.category_id IN (SELECT category_id FROM interests WHERE category_id IS NOT NULL)
		  AND c.instructor_id <> $1
		  AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.user_id = $1 AND e.course_id = c.id)
		ORDER BY c.rating_avg DESC, c.enrollment_count DESC, c.created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recommending courses for user %s: %w", userID, err)
	}
	return collectCourses(rows)
}

func (r *courseRepo) Popular(ctx context.Context, userID string, limit int) ([]model.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		WHERE c.status = 'published'
		  AND c.instructor_id <> $1
		  AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.user_id = $1 AND e.course_id = c.id)
		ORDER BY c.enrollment_count DESC, c.rating_avg DESC, c.created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing popular courses: %w", err)
	}
	return collectCourses(rows)
}
