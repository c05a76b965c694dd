package models

import (
	"time"

	"github.com/01moynul/brandstudio-golang/internal/scoring"
)

// OfferSteps is the number of steps of the offer questionnaire.
const OfferSteps = 7

// Offer is the model for the 'offers' table
type Offer struct {
	ID          int64      `json:"id" db:"id"`
	WorkspaceID int64      `json:"workspaceId" db:"workspace_id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	OfferType   string     `json:"offerType" db:"offer_type"` // main, entry, free, premium
	Target      string     `json:"target" db:"target"`
	Problem     string     `json:"problem" db:"problem"`
	Promise     string     `json:"promise" db:"promise"`
	Features    StringList `json:"features" db:"features"`
	Price       *float64   `json:"price" db:"price"`
	Format      string     `json:"format" db:"format"`
	Objections  StringList `json:"objections" db:"objections"`
	Guarantee   string     `json:"guarantee" db:"guarantee"`
	CurrentStep int        `json:"currentStep" db:"current_step"`
	IsValidated bool       `json:"isValidated" db:"is_validated"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`

	Completion int `json:"completion" db:"-"`
}

func (o *Offer) CompletionFields() []scoring.Field {
	priced := o.Price != nil && *o.Price >= 0
	return []scoring.Field{
		scoring.Text("name", 10, o.Name),
		scoring.Text("target", 15, o.Target),
		scoring.Text("problem", 15, o.Problem),
		scoring.Text("promise", 20, o.Promise),
		scoring.AtLeast("features", 10, o.Features.Len(), 3),
		{Key: "price", Points: 10, Filled: priced},
		scoring.Text("format", 5, o.Format),
		scoring.AtLeast("objections", 10, o.Objections.Len(), 2),
		scoring.Text("guarantee", 5, o.Guarantee),
	}
}
