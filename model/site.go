package model

import "time"

type GalleryItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateGalleryItemRequest struct {
	Title        string `json:"title" validate:"notblank"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url" validate:"notblank"`
	DisplayOrder int    `json:"display_order"`
}

type UpdateGalleryItemRequest struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Title        *string `json:"title" validate:"omitnil,notblank"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"image_url" validate:"omitnil,notblank"`
	DisplayOrder *int    `json:"display_order"`
	IsVisible    *bool   `json:"is_visible"`
}

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url"`
	Website      string    `json:"website"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateClientRequest struct {
	Name         string `json:"name" validate:"notblank"`
	LogoURL      string `json:"logo_url"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

type UpdateClientRequest struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Name         *string `json:"name" validate:"omitnil,notblank"`
	LogoURL      *string `json:"logo_url"`
	Website      *string `json:"website"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
	IsVisible    *bool   `json:"is_visible"`
}

type TeamMember struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Position     string    `json:"position"`
	Bio          string    `json:"bio"`
	PhotoURL     string    `json:"photo_url"`
	DisplayOrder int       `json:"display_order"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateTeamMemberRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Position string `json:"position" validate:"notblank"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

type UpdateTeamMemberRequest struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Name         *string `json:"name" validate:"omitnil,notblank"`
	Position     *string `json:"position" validate:"omitnil,notblank"`
	Bio          *string `json:"bio"`
	PhotoURL     *string `json:"photo_url"`
	DisplayOrder *int    `json:"display_order"`
	IsVisible    *bool   `json:"is_visible"`
}

type NavigationLink struct {
	ID           string `json:"id"`
	Label        string `json:"label" validate:"notblank"`
	Href         string `json:"href" validate:"notblank"`
	DisplayOrder int    `json:"display_order"`
	IsVisible    *bool  `json:"is_visible,omitempty"`
}

type UpdateNavigationRequest struct {
	Links []NavigationLink `json:"links" validate:"required,dive"`
}

type ContactRequest struct {
	Name      string `json:"name" validate:"notblank,letters,min=2"`
	Company   string `json:"company" validate:"notblank,min=2"`
	Email     string `json:"email" validate:"notblank,email"`
	Phone     string `json:"phone" validate:"phone9"`
	BirthDate string `json:"birthDate" validate:"birthdate"`
	Subject   string `json:"subject" validate:"notblank,min=5"`
	Message   string `json:"message" validate:"notblank,min=10,max=1000"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate time.Time `json:"birthDate"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContactPage struct {
	Messages []ContactMessage `json:"messages"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}
