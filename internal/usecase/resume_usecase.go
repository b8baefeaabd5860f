package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"
	"zaanjob-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	viewUpdateTimeout = 5 * time.Second
)

type resumeUsecase struct {
	repo     domain.ResumeRepository
	schema   domain.SchemaUsecase
	reader   *Resolver
	mutator  *Resolver
	validate *validator.Validate
	secLog   *security.SecurityLogger
	log      *slog.Logger
	now      func() time.Time
}

func NewResumeUsecase(
	repo domain.ResumeRepository,
	schema domain.SchemaUsecase,
	validate *validator.Validate,
	secLog *security.SecurityLogger,
	log *slog.Logger,
) domain.ResumeUsecase {
	return &resumeUsecase{
		repo:     repo,
		schema:   schema,
		reader:   NewResolver(log, ReadStrategies(repo)...),
		mutator:  NewResolver(log, MutationStrategies(repo)...),
		validate: validate,
		secLog:   secLog,
		log:      log,
		now:      time.Now,
	}
}

func (u *resumeUsecase) Create(ctx context.Context, req *domain.CreateResumeRequest) (*domain.Resume, error) {
	userID := domain.UserIDFrom(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("You must be logged in to create a resume")
	}

	if err := u.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	now := u.now().UTC()
	resume := &domain.Resume{
		UserID:            userID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		FullName:          fullName(req.FirstName, req.LastName),
		Title:             req.Title,
		Bio:               req.Bio,
		Location:          req.Location,
		Email:             req.Email,
		Phone:             req.Phone,
		Website:           req.Website,
		SpecialistProfile: req.SpecialistProfile,
		Nationality:       req.Nationality,
		Age:               req.Age,
		YearsOfExperience: req.YearsOfExperience,
		EducationLevel:    req.EducationLevel,
		Skills:            req.Skills,
		Education:         req.Education,
		Experience:        req.Experience,
		SocialMedia:       req.SocialMedia,
		Attachments:       req.Attachments,
		Certifications:    req.Certifications,
		Portfolio:         req.Portfolio,
		Photo:             req.Photo,
		CVURL:             req.CVURL,
		Slug:              NewSlug(req.Title),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if resume.EducationLevel == "" {
		resume.EducationLevel = domain.DefaultEducationLevel
	}
	if resume.Photo == "" {
		resume.Photo = PlaceholderAvatar(req.Title)
	}

	u.schema.Ensure(ctx)
	if err := u.repo.Create(ctx, resume); err != nil {
		return nil, mapRepoError(err)
	}
	u.log.Info("resume created", "id", resume.ID, "slug", resume.Slug, "user_id", userID)
	return resume, nil
}

// Get resolves identifier and counts a view. The increment runs after the
// response is decided, so the returned record carries the count as read.
func (u *resumeUsecase) Get(ctx context.Context, identifier string) (*domain.Resume, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, notFound()
	}

	u.schema.Ensure(ctx)
	resume, _, err := u.reader.Resolve(ctx, identifier)
	if err != nil {
		if IsNotFound(err) {
			return nil, notFound()
		}
		return nil, mapRepoError(err)
	}

	u.countView(ctx, resume.ID, resume.Views)
	return resume, nil
}

func (u *resumeUsecase) countView(ctx context.Context, id string, current int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewUpdateTimeout)
		defer cancel()
		if err := u.repo.SetViews(ctx, id, current+1); err != nil {
			u.log.Warn("view count update failed", "id", id, "error", err)
		}
	}()
}

func (u *resumeUsecase) List(ctx context.Context, filter domain.ResumeFilter) ([]domain.Resume, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	u.schema.Ensure(ctx)
	resumes, err := u.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if resumes == nil {
		resumes = []domain.Resume{}
	}
	return resumes, nil
}

func (u *resumeUsecase) Update(ctx context.Context, identifier string, req *domain.UpdateResumeRequest) (*domain.Resume, error) {
	resume, err := u.ownedResume(ctx, identifier, "update")
	if err != nil {
		return nil, err
	}

	if blank := req.RequiredBlank(); len(blank) > 0 {
		return nil, apperror.Validation("Missing required fields: "+strings.Join(blank, ", "), blank)
	}
	if err := u.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	applyUpdate(resume, req)
	resume.UpdatedAt = u.now().UTC()

	if err := u.repo.Update(ctx, resume); err != nil {
		return nil, mapRepoError(err)
	}
	u.log.Info("resume updated", "id", resume.ID, "user_id", resume.UserID)
	return resume, nil
}

func (u *resumeUsecase) Delete(ctx context.Context, identifier string) error {
	resume, err := u.ownedResume(ctx, identifier, "delete")
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, resume.ID); err != nil {
		return mapRepoError(err)
	}
	u.log.Info("resume deleted", "id", resume.ID, "user_id", resume.UserID)
	return nil
}

// ownedResume resolves identifier for a mutation and checks the caller owns
// it. No write happens before this returns.
func (u *resumeUsecase) ownedResume(ctx context.Context, identifier, action string) (*domain.Resume, error) {
	userID := domain.UserIDFrom(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("You must be logged in to " + action + " a resume")
	}

	resume, _, err := u.mutator.Resolve(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if IsNotFound(err) {
			return nil, notFound()
		}
		return nil, mapRepoError(err)
	}

	if resume.UserID != userID {
		u.secLog.LogForbidden(ctx, userID, "resume:"+resume.ID, action)
		return nil, apperror.Forbidden("You do not have permission to " + action + " this resume")
	}
	return resume, nil
}

func applyUpdate(r *domain.Resume, req *domain.UpdateResumeRequest) {
	setString(&r.FirstName, req.FirstName)
	setString(&r.LastName, req.LastName)
	setString(&r.Title, req.Title)
	setString(&r.Bio, req.Bio)
	setString(&r.Email, req.Email)
	setString(&r.Phone, req.Phone)
	setString(&r.Location, req.Location)
	setString(&r.Website, req.Website)
	setString(&r.SpecialistProfile, req.SpecialistProfile)
	setString(&r.Nationality, req.Nationality)
	setString(&r.Age, req.Age)
	setString(&r.YearsOfExperience, req.YearsOfExperience)
	setString(&r.EducationLevel, req.EducationLevel)
	setString(&r.Photo, req.Photo)
	setString(&r.CVURL, req.CVURL)

	if req.Skills != nil {
		r.Skills = *req.Skills
	}
	if req.Education != nil {
		r.Education = *req.Education
	}
	if req.Experience != nil {
		r.Experience = *req.Experience
	}
	if req.SocialMedia != nil {
		r.SocialMedia = *req.SocialMedia
	}
	if req.Attachments != nil {
		r.Attachments = *req.Attachments
	}
	if req.Certifications != nil {
		r.Certifications = *req.Certifications
	}
	if req.Portfolio != nil {
		r.Portfolio = *req.Portfolio
	}

	if r.EducationLevel == "" {
		r.EducationLevel = domain.DefaultEducationLevel
	}
	if r.Photo == "" {
		r.Photo = PlaceholderAvatar(r.Title)
	}
	r.FullName = fullName(r.FirstName, r.LastName)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func validationError(err error) error {
	if missing, ok := validation.MissingFields(err); ok && len(missing) > 0 {
		return apperror.Validation("Missing required fields: "+strings.Join(missing, ", "), missing)
	}
	return apperror.Validation("Invalid resume data", validation.FormatValidationErrors(err))
}

func notFound() error {
	return apperror.NotFound("Resume not found").WithDetails("No resume found with the provided identifier")
}

func mapRepoError(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrNotFound):
		return notFound()
	case errors.Is(err, domain.ErrConflict):
		return apperror.Conflict("A resume with this information already exists.")
	case errors.Is(err, domain.ErrTableMissing):
		return apperror.TableMissing("Resume table not found. Please try again later.", err)
	default:
		return apperror.Internal(fmt.Errorf("resume store: %w", err))
	}
}
