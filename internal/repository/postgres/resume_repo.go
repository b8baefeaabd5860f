package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"zaanjob-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const resumeColumns = `
	id::text, COALESCE(user_id::text, ''),
	COALESCE(firstname, ''), COALESCE(lastname, ''), COALESCE(fullname, ''),
	title, bio, location, email, phone,
	COALESCE(website, ''), COALESCE(specialistprofile, ''), COALESCE(nationality, ''),
	COALESCE(age, ''), COALESCE(yearsofexperience, ''), COALESCE(educationlevel, ''),
	COALESCE(skills, '{}'),
	COALESCE(education, '[]'::jsonb), COALESCE(experience, '[]'::jsonb),
	COALESCE(social_media, '{}'::jsonb), COALESCE(attachments, '[]'::jsonb),
	COALESCE(certifications, '[]'::jsonb), COALESCE(portfolio, '{}'),
	COALESCE(photo, ''), COALESCE(cv_url, ''),
	COALESCE(views, 0), COALESCE(contacts, 0), COALESCE(slug, ''),
	created_at, updated_at`

type resumeRepository struct {
	db *pgxpool.Pool
}

func NewResumeRepository(db *pgxpool.Pool) domain.ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) Create(ctx context.Context, resume *domain.Resume) error {
	doc, err := encodeDocuments(resume)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO public.resumes (
			user_id, firstname, lastname, fullname, title, bio, location, email, phone,
			website, specialistprofile, nationality, age, yearsofexperience, educationlevel,
			skills, education, experience, social_media, attachments, certifications, portfolio,
			photo, cv_url, views, contacts, slug, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17::jsonb, $18::jsonb, $19::jsonb, $20::jsonb, $21::jsonb, $22,
			$23, $24, $25, $26, $27, $28, $29
		)
		RETURNING id::text, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		resume.UserID, resume.FirstName, resume.LastName, resume.FullName,
		resume.Title, resume.Bio, resume.Location, resume.Email, resume.Phone,
		nullIfEmpty(resume.Website), nullIfEmpty(resume.SpecialistProfile), nullIfEmpty(resume.Nationality),
		nullIfEmpty(resume.Age), nullIfEmpty(resume.YearsOfExperience), resume.EducationLevel,
		pq.Array(nonNil(resume.Skills)), doc.education, doc.experience, doc.socialMedia,
		doc.attachments, doc.certifications, pq.Array(nonNil(resume.Portfolio)),
		nullIfEmpty(resume.Photo), nullIfEmpty(resume.CVURL),
		resume.Views, resume.Contacts, resume.Slug, resume.CreatedAt, resume.UpdatedAt,
	).Scan(&resume.ID, &resume.CreatedAt, &resume.UpdatedAt)
	return mapError(err)
}

func (r *resumeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM public.resumes WHERE slug = $1 ORDER BY created_at LIMIT 1`
	return r.getOne(ctx, query, slug)
}

func (r *resumeRepository) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM public.resumes WHERE id = $1::uuid`
	return r.getOne(ctx, query, id)
}

func (r *resumeRepository) FindByName(ctx context.Context, fragment string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM public.resumes
		WHERE firstname ILIKE $1 OR lastname ILIKE $1 OR fullname ILIKE $1
		LIMIT 1`
	return r.getOne(ctx, query, containsPattern(fragment))
}

func (r *resumeRepository) getOne(ctx context.Context, query string, arg any) (*domain.Resume, error) {
	resume, err := scanResume(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return resume, nil
}

func (r *resumeRepository) List(ctx context.Context, filter domain.ResumeFilter) ([]domain.Resume, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		where = append(where, "user_id = "+arg(filter.UserID)+"::uuid")
	}
	if filter.Query != "" {
		p := arg(containsPattern(filter.Query))
		exact := arg(filter.Query)
		where = append(where, fmt.Sprintf("(title ILIKE %s OR bio ILIKE %s OR fullname ILIKE %s OR %s = ANY(skills))", p, p, p, exact))
	}
	if filter.Location != "" {
		where = append(where, "location ILIKE "+arg(containsPattern(filter.Location)))
	}
	if filter.Skill != "" {
		where = append(where, arg(filter.Skill)+" = ANY(skills)")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + resumeColumns + ` FROM public.resumes`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	resumes := make([]domain.Resume, 0)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, *resume)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resumes, nil
}

func (r *resumeRepository) Update(ctx context.Context, resume *domain.Resume) error {
	doc, err := encodeDocuments(resume)
	if err != nil {
		return err
	}

	query := `
		UPDATE public.resumes SET
			firstname = $2, lastname = $3, fullname = $4, title = $5, bio = $6,
			location = $7, email = $8, phone = $9, website = $10, specialistprofile = $11,
			nationality = $12, age = $13, yearsofexperience = $14, educationlevel = $15,
			skills = $16, education = $17::jsonb, experience = $18::jsonb,
			social_media = $19::jsonb, attachments = $20::jsonb, certifications = $21::jsonb,
			portfolio = $22, photo = $23, cv_url = $24, updated_at = $25
		WHERE id = $1::uuid
		RETURNING updated_at`

	err = r.db.QueryRow(ctx, query,
		resume.ID, resume.FirstName, resume.LastName, resume.FullName, resume.Title, resume.Bio,
		resume.Location, resume.Email, resume.Phone, nullIfEmpty(resume.Website), nullIfEmpty(resume.SpecialistProfile),
		nullIfEmpty(resume.Nationality), nullIfEmpty(resume.Age), nullIfEmpty(resume.YearsOfExperience), resume.EducationLevel,
		pq.Array(nonNil(resume.Skills)), doc.education, doc.experience,
		doc.socialMedia, doc.attachments, doc.certifications,
		pq.Array(nonNil(resume.Portfolio)), nullIfEmpty(resume.Photo), nullIfEmpty(resume.CVURL), resume.UpdatedAt,
	).Scan(&resume.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return mapError(err)
}

func (r *resumeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM public.resumes WHERE id = $1::uuid`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *resumeRepository) SetViews(ctx context.Context, id string, views int) error {
	tag, err := r.db.Exec(ctx, `UPDATE public.resumes SET views = $2 WHERE id = $1::uuid`, id, views)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanResume(row rowScanner) (*domain.Resume, error) {
	var (
		res                                domain.Resume
		skills, portfolio                  []string
		education, experience, socialMedia []byte
		attachments, certifications        []byte
	)
	err := row.Scan(
		&res.ID, &res.UserID,
		&res.FirstName, &res.LastName, &res.FullName,
		&res.Title, &res.Bio, &res.Location, &res.Email, &res.Phone,
		&res.Website, &res.SpecialistProfile, &res.Nationality,
		&res.Age, &res.YearsOfExperience, &res.EducationLevel,
		pq.Array(&skills),
		&education, &experience, &socialMedia, &attachments, &certifications,
		pq.Array(&portfolio),
		&res.Photo, &res.CVURL,
		&res.Views, &res.Contacts, &res.Slug,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Skills = nonNil(skills)
	res.Portfolio = nonNil(portfolio)

	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{education, &res.Education},
		{experience, &res.Experience},
		{socialMedia, &res.SocialMedia},
		{attachments, &res.Attachments},
		{certifications, &res.Certifications},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decode resume %s document: %w", res.ID, err)
		}
	}
	return &res, nil
}

type resumeDocuments struct {
	education, experience, socialMedia, attachments, certifications string
}

// encodeDocuments renders JSONB columns as text; the simple protocol would
// send []byte as bytea.
func encodeDocuments(r *domain.Resume) (resumeDocuments, error) {
	var doc resumeDocuments
	for _, f := range []struct {
		dest *string
		v    any
		zero string
	}{
		{&doc.education, r.Education, "[]"},
		{&doc.experience, r.Experience, "[]"},
		{&doc.socialMedia, r.SocialMedia, "{}"},
		{&doc.attachments, r.Attachments, "[]"},
		{&doc.certifications, r.Certifications, "[]"},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return doc, err
		}
		if string(b) == "null" {
			b = []byte(f.zero)
		}
		*f.dest = string(b)
	}
	return doc, nil
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s escaped.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
