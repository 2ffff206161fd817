package models

import "time"

// RegistrationStatus tracks how far the mentorship team has processed a sign-up.
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusApproved RegistrationStatus = "approved"
	StatusRejected RegistrationStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// GeoLocation is an optional coordinate supplied by the visitor's browser.
type GeoLocation struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Registration is a visitor's sign-up for the mentorship programme.
type Registration struct {
	ID                 string             `json:"id" bson:"_id"`
	Name               string             `json:"name" bson:"name"`
	Email              string             `json:"email" bson:"email"`
	WhatsApp           string             `json:"whatsapp" bson:"whatsapp"`
	CountryOfOrigin    string             `json:"countryOfOrigin" bson:"countryOfOrigin"`
	CountryOfResidence string             `json:"countryOfResidence" bson:"countryOfResidence"`
	Location           *GeoLocation       `json:"location,omitempty" bson:"location,omitempty"`
	ClientIP           string             `json:"clientIp,omitempty" bson:"clientIp,omitempty"`
	ClientCountry      string             `json:"clientCountry,omitempty" bson:"clientCountry,omitempty"`
	Status             RegistrationStatus `json:"status" bson:"status"`
	SubmittedAt        time.Time          `json:"submittedAt" bson:"submittedAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BlogPost is an article shown on the public site.
type BlogPost struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title" validate:"required"`
	Slug        string    `json:"slug" bson:"slug" validate:"required"`
	Excerpt     string    `json:"excerpt,omitempty" bson:"excerpt,omitempty"`
	Body        string    `json:"body" bson:"body" validate:"required"`
	Author      string    `json:"author,omitempty" bson:"author,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty" bson:"coverUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt" bson:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Event is a scheduled mentorship session, webinar or meetup.
type Event struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title" validate:"required"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Location    string    `json:"location" bson:"location" validate:"required"`
	StartsAt    time.Time `json:"startsAt" bson:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt,omitempty" bson:"endsAt,omitempty"`
	SignupURL   string    `json:"signupUrl,omitempty" bson:"signupUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Partner is an organisation supporting the programme.
type Partner struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name" validate:"required"`
	Website     string    `json:"website,omitempty" bson:"website,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Document is implemented by content kinds stored as JSON documents.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
	CreatedTime() time.Time
	Stamp(created, updated time.Time)
}

func (p *BlogPost) DocumentID() string     { return p.ID }
func (p *BlogPost) SetDocumentID(id string) { p.ID = id }
func (p *BlogPost) CreatedTime() time.Time  { return p.CreatedAt }

// Stamp sets the audit timestamps. A post without a publish date is
// published when it is created.
func (p *BlogPost) Stamp(created, updated time.Time) {
	p.CreatedAt = created
	p.UpdatedAt = updated
	if p.PublishedAt.IsZero() {
		p.PublishedAt = created
	}
}

func (e *Event) DocumentID() string     { return e.ID }
func (e *Event) SetDocumentID(id string) { e.ID = id }
func (e *Event) CreatedTime() time.Time  { return e.CreatedAt }
func (e *Event) Stamp(created, updated time.Time) {
	e.CreatedAt = created
	e.UpdatedAt = updated
}

func (p *Partner) DocumentID() string     { return p.ID }
func (p *Partner) SetDocumentID(id string) { p.ID = id }
func (p *Partner) CreatedTime() time.Time  { return p.CreatedAt }
func (p *Partner) Stamp(created, updated time.Time) {
	p.CreatedAt = created
	p.UpdatedAt = updated
}

// SessionTokens groups the bearer credentials issued to an administrator.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
