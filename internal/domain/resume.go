package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrTableMissing = errors.New("table does not exist")
)

// DefaultEducationLevel is stored when a profile does not state one.
const DefaultEducationLevel = "High school"

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
}

type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Pinterest string `json:"pinterest,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

type Attachment struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Type   string   `json:"type,omitempty"`
	Images []string `json:"images,omitempty"`
}

type Certification struct {
	Name string `json:"name"`
	Year string `json:"year,omitempty"`
}

// Resume is one professional's public listing. JSON names follow the
// lower-cased column names of the resumes table.
type Resume struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	FirstName         string          `json:"firstname"`
	LastName          string          `json:"lastname"`
	FullName          string          `json:"fullname"`
	Title             string          `json:"title"`
	Bio               string          `json:"bio"`
	Location          string          `json:"location"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	Website           string          `json:"website"`
	SpecialistProfile string          `json:"specialistprofile"`
	Nationality       string          `json:"nationality"`
	Age               string          `json:"age"`
	YearsOfExperience string          `json:"yearsofexperience"`
	EducationLevel    string          `json:"educationlevel"`
	Skills            []string        `json:"skills"`
	Education         []Education     `json:"education"`
	Experience        []Experience    `json:"experience"`
	SocialMedia       SocialMedia     `json:"social_media"`
	Attachments       []Attachment    `json:"attachments"`
	Certifications    []Certification `json:"certifications"`
	Portfolio         []string        `json:"portfolio"`
	Photo             string          `json:"photo"`
	CVURL             string          `json:"cv_url"`
	Views             int             `json:"views"`
	Contacts          int             `json:"contacts"`
	Slug              string          `json:"slug"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ResumeFilter narrows a directory listing. Empty fields are ignored.
type ResumeFilter struct {
	UserID   string
	Query    string
	Location string
	Skill    string
	Limit    int
	Offset   int
}

type ResumeRepository interface {
	Create(ctx context.Context, resume *Resume) error
	GetBySlug(ctx context.Context, slug string) (*Resume, error)
	GetByID(ctx context.Context, id string) (*Resume, error)
	FindByName(ctx context.Context, fragment string) (*Resume, error)
	List(ctx context.Context, filter ResumeFilter) ([]Resume, error)
	Update(ctx context.Context, resume *Resume) error
	Delete(ctx context.Context, id string) error
	SetViews(ctx context.Context, id string, views int) error
}

// ResolveStrategy is one way of turning a caller-supplied identifier into a
// resume. A miss is reported as (nil, nil).
type ResolveStrategy interface {
	Name() string
	Resolve(ctx context.Context, identifier string) (*Resume, error)
}

type ResumeUsecase interface {
	Create(ctx context.Context, req *CreateResumeRequest) (*Resume, error)
	Get(ctx context.Context, identifier string) (*Resume, error)
	List(ctx context.Context, filter ResumeFilter) ([]Resume, error)
	Update(ctx context.Context, identifier string, req *UpdateResumeRequest) (*Resume, error)
	Delete(ctx context.Context, identifier string) error
	Export(ctx context.Context, filter ResumeFilter) ([]byte, string, error)
}
