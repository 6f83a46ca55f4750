// Package content models the editable blocks of the marketing site.
//
// Each section key maps to a known shape (hero, stats, ...). Keys without a
// registered shape keep their JSON verbatim as Raw, and every known shape has
// an Extra map for keys the site adds before the shape does.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindHero         Kind = "hero"
	KindStats        Kind = "stats"
	KindServicesPage Kind = "services_page"
	KindAbout        Kind = "about"
	KindContactInfo  Kind = "contact_info"
	KindRaw          Kind = "raw"
)

var ErrEmpty = errors.New("content is required")

// Body is one of Hero, Stats, ServicesPage, About, ContactInfo or Raw.
type Body interface {
	Kind() Kind
}

type Extra map[string]json.RawMessage

type Link struct {
	Label string `json:"label" validate:"notblank"`
	Href  string `json:"href" validate:"notblank"`
}

type Hero struct {
	Title        string `json:"title" validate:"notblank"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	CallToAction *Link  `json:"callToAction,omitempty" validate:"omitnil"`
	Extra        Extra  `json:"extra,omitempty"`
}

type StatItem struct {
	Label string `json:"label" validate:"notblank"`
	Value string `json:"value" validate:"notblank"`
}

type Stats struct {
	Items []StatItem `json:"items" validate:"dive"`
	Extra Extra      `json:"extra,omitempty"`
}

type ServicesPage struct {
	HeroTitle       string   `json:"heroTitle"`
	HeroSubtitle    string   `json:"heroSubtitle"`
	HeroDescription string   `json:"heroDescription"`
	HeroImage       string   `json:"heroImage"`
	Areas           []string `json:"areas"`
	Extra           Extra    `json:"extra,omitempty"`
}

type About struct {
	Mission string   `json:"mission"`
	Vision  string   `json:"vision"`
	History string   `json:"history"`
	Values  []string `json:"values"`
	Extra   Extra    `json:"extra,omitempty"`
}

type ContactInfo struct {
	Email   string            `json:"email" validate:"omitempty,email"`
	Phone   string            `json:"phone"`
	Address string            `json:"address"`
	Social  map[string]string `json:"social,omitempty"`
	Extra   Extra             `json:"extra,omitempty"`
}

// Raw is the content of a section with no registered shape.
type Raw struct {
	json.RawMessage
}

func (*Hero) Kind() Kind         { return KindHero }
func (*Stats) Kind() Kind        { return KindStats }
func (*ServicesPage) Kind() Kind { return KindServicesPage }
func (*About) Kind() Kind        { return KindAbout }
func (*ContactInfo) Kind() Kind  { return KindContactInfo }
func (Raw) Kind() Kind           { return KindRaw }

var shapes = map[string]func() Body{
	"hero":          func() Body { return &Hero{} },
	"stats":         func() Body { return &Stats{} },
	"services_page": func() Body { return &ServicesPage{} },
	"about":         func() Body { return &About{} },
	"contact_info":  func() Body { return &ContactInfo{} },
}

// KindOf returns the shape a section key decodes into.
func KindOf(key string) Kind {
	if newBody, ok := shapes[key]; ok {
		return newBody().Kind()
	}
	return KindRaw
}

// Decode parses the content of the section stored under key. Known shapes
// reject unknown top-level fields; those belong under "extra".
func Decode(key string, data []byte) (Body, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmpty
	}

	newBody, ok := shapes[key]
	if !ok {
		if !json.Valid(data) {
			return nil, errors.New("content is not valid JSON")
		}
		return Raw{json.RawMessage(data)}, nil
	}

	body := newBody()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(body); err != nil {
		return nil, fmt.Errorf("%s content: %w", key, err)
	}
	return body, nil
}

// Section is one independently editable block of the site.
type Section struct {
	Key       string    `json:"section_key"`
	Name      string    `json:"section_name"`
	Kind      Kind      `json:"kind"`
	Content   Body      `json:"content"`
	UpdatedBy *string   `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpsertRequest struct {
	Key     string          `json:"section_key" validate:"notblank,max=100"`
	Name    string          `json:"section_name"`
	Content json.RawMessage `json:"content"`
}
