package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts either a JSON string or a JSON number. Form clients send
// age and years of experience both ways.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// CreateResumeRequest is the normalized create payload. Aliases are folded
// in UnmarshalJSON so nothing downstream sees camelCase variants.
type CreateResumeRequest struct {
	FirstName         string          `json:"firstname" validate:"required,max=100"`
	LastName          string          `json:"lastname" validate:"required,max=100"`
	Title             string          `json:"title" validate:"required,max=200"`
	Bio               string          `json:"bio" validate:"required"`
	Email             string          `json:"email" validate:"required,max=320"`
	Phone             string          `json:"phone" validate:"required,max=50"`
	Location          string          `json:"location" validate:"required,max=200"`
	Website           string          `json:"website"`
	SpecialistProfile string          `json:"specialistprofile"`
	Nationality       string          `json:"nationality"`
	Age               string          `json:"age"`
	YearsOfExperience string          `json:"yearsofexperience"`
	EducationLevel    string          `json:"educationlevel"`
	Skills            []string        `json:"skills" validate:"omitempty,dive,max=100"`
	Education         []Education     `json:"education"`
	Experience        []Experience    `json:"experience"`
	SocialMedia       SocialMedia     `json:"social_media"`
	Attachments       []Attachment    `json:"attachments"`
	Certifications    []Certification `json:"certifications"`
	Portfolio         []string        `json:"portfolio" validate:"omitempty,dive,public_url"`
	Photo             string          `json:"photo" validate:"public_url"`
	CVURL             string          `json:"cv_url" validate:"public_url"`
}

// UpdateResumeRequest carries only the fields the caller supplied. Owner,
// counters, slug and timestamps are not part of it.
type UpdateResumeRequest struct {
	FirstName         *string          `json:"firstname,omitempty" validate:"omitempty,max=100"`
	LastName          *string          `json:"lastname,omitempty" validate:"omitempty,max=100"`
	Title             *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Bio               *string          `json:"bio,omitempty"`
	Email             *string          `json:"email,omitempty" validate:"omitempty,max=320"`
	Phone             *string          `json:"phone,omitempty" validate:"omitempty,max=50"`
	Location          *string          `json:"location,omitempty" validate:"omitempty,max=200"`
	Website           *string          `json:"website,omitempty"`
	SpecialistProfile *string          `json:"specialistprofile,omitempty"`
	Nationality       *string          `json:"nationality,omitempty"`
	Age               *string          `json:"age,omitempty"`
	YearsOfExperience *string          `json:"yearsofexperience,omitempty"`
	EducationLevel    *string          `json:"educationlevel,omitempty"`
	Skills            *[]string        `json:"skills,omitempty" validate:"omitempty,dive,max=100"`
	Education         *[]Education     `json:"education,omitempty"`
	Experience        *[]Experience    `json:"experience,omitempty"`
	SocialMedia       *SocialMedia     `json:"social_media,omitempty"`
	Attachments       *[]Attachment    `json:"attachments,omitempty"`
	Certifications    *[]Certification `json:"certifications,omitempty"`
	Portfolio         *[]string        `json:"portfolio,omitempty" validate:"omitempty,dive,public_url"`
	Photo             *string          `json:"photo,omitempty" validate:"omitempty,public_url"`
	CVURL             *string          `json:"cv_url,omitempty" validate:"omitempty,public_url"`
}

// resumeInput is the wire shape shared by create and update. Matching in
// encoding/json is case-insensitive, so "firstName" already lands on
// "firstname"; only the underscore variants need explicit alias fields.
type resumeInput struct {
	FirstName         *string          `json:"firstname"`
	LastName          *string          `json:"lastname"`
	Title             *string          `json:"title"`
	Bio               *string          `json:"bio"`
	Email             *string          `json:"email"`
	Phone             *string          `json:"phone"`
	Location          *string          `json:"location"`
	Website           *string          `json:"website"`
	SpecialistProfile *string          `json:"specialistprofile"`
	Nationality       *string          `json:"nationality"`
	Age               *FlexString      `json:"age"`
	YearsOfExperience *FlexString      `json:"yearsofexperience"`
	EducationLevel    *string          `json:"educationlevel"`
	Skills            *[]string        `json:"skills"`
	Education         *[]Education     `json:"education"`
	Experience        *[]Experience    `json:"experience"`
	SocialMedia       *SocialMedia     `json:"social_media"`
	SocialMediaAlias  *SocialMedia     `json:"socialMedia"`
	Attachments       *[]Attachment    `json:"attachments"`
	Certifications    *[]Certification `json:"certifications"`
	Portfolio         *[]string        `json:"portfolio"`
	Photo             *string          `json:"photo"`
	CVURL             *string          `json:"cv_url"`
	CVURLAlias        *string          `json:"cvUrl"`
}

func (in *resumeInput) normalize() {
	for _, p := range []**string{
		&in.FirstName, &in.LastName, &in.Title, &in.Bio, &in.Email, &in.Phone,
		&in.Location, &in.Website, &in.SpecialistProfile, &in.Nationality,
		&in.EducationLevel, &in.Photo, &in.CVURL, &in.CVURLAlias,
	} {
		if *p != nil {
			v := strings.TrimSpace(**p)
			*p = &v
		}
	}
	if in.CVURL == nil {
		in.CVURL = in.CVURLAlias
	}
	if in.SocialMedia == nil {
		in.SocialMedia = in.SocialMediaAlias
	}
	if in.Skills != nil {
		skills := cleanList(*in.Skills)
		in.Skills = &skills
	}
	if in.Portfolio != nil {
		portfolio := cleanList(*in.Portfolio)
		in.Portfolio = &portfolio
	}
}

func (r *CreateResumeRequest) UnmarshalJSON(data []byte) error {
	var in resumeInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	in.normalize()

	*r = CreateResumeRequest{
		FirstName:         deref(in.FirstName),
		LastName:          deref(in.LastName),
		Title:             deref(in.Title),
		Bio:               deref(in.Bio),
		Email:             deref(in.Email),
		Phone:             deref(in.Phone),
		Location:          deref(in.Location),
		Website:           deref(in.Website),
		SpecialistProfile: deref(in.SpecialistProfile),
		Nationality:       deref(in.Nationality),
		Age:               strings.TrimSpace(string(derefFlex(in.Age))),
		YearsOfExperience: strings.TrimSpace(string(derefFlex(in.YearsOfExperience))),
		EducationLevel:    deref(in.EducationLevel),
		Photo:             deref(in.Photo),
		CVURL:             deref(in.CVURL),
	}
	if in.Skills != nil {
		r.Skills = *in.Skills
	}
	if in.Education != nil {
		r.Education = *in.Education
	}
	if in.Experience != nil {
		r.Experience = *in.Experience
	}
	if in.SocialMedia != nil {
		r.SocialMedia = *in.SocialMedia
	}
	if in.Attachments != nil {
		r.Attachments = *in.Attachments
	}
	if in.Certifications != nil {
		r.Certifications = *in.Certifications
	}
	if in.Portfolio != nil {
		r.Portfolio = *in.Portfolio
	}
	return nil
}

func (r *UpdateResumeRequest) UnmarshalJSON(data []byte) error {
	var in resumeInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	in.normalize()

	*r = UpdateResumeRequest{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Title:             in.Title,
		Bio:               in.Bio,
		Email:             in.Email,
		Phone:             in.Phone,
		Location:          in.Location,
		Website:           in.Website,
		SpecialistProfile: in.SpecialistProfile,
		Nationality:       in.Nationality,
		EducationLevel:    in.EducationLevel,
		Skills:            in.Skills,
		Education:         in.Education,
		Experience:        in.Experience,
		SocialMedia:       in.SocialMedia,
		Attachments:       in.Attachments,
		Certifications:    in.Certifications,
		Portfolio:         in.Portfolio,
		Photo:             in.Photo,
		CVURL:             in.CVURL,
	}
	if in.Age != nil {
		v := strings.TrimSpace(string(*in.Age))
		r.Age = &v
	}
	if in.YearsOfExperience != nil {
		v := strings.TrimSpace(string(*in.YearsOfExperience))
		r.YearsOfExperience = &v
	}
	return nil
}

// RequiredBlank returns the JSON names of required fields that the update
// explicitly sets to an empty value.
func (r *UpdateResumeRequest) RequiredBlank() []string {
	var blank []string
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"firstname", r.FirstName},
		{"lastname", r.LastName},
		{"title", r.Title},
		{"bio", r.Bio},
		{"email", r.Email},
		{"phone", r.Phone},
		{"location", r.Location},
	} {
		if f.v != nil && *f.v == "" {
			blank = append(blank, f.name)
		}
	}
	return blank
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFlex(s *FlexString) FlexString {
	if s == nil {
		return ""
	}
	return *s
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
