package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/scoring"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const offerColumns = `id, workspace_id, name, slug, offer_type, target, problem, promise, features,
	price, format, objections, guarantee, current_step, is_validated, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(r rowScanner) (*models.Offer, error) {
	var o models.Offer
	var price sql.NullFloat64
	if err := r.Scan(&o.ID, &o.WorkspaceID, &o.Name, &o.Slug, &o.OfferType, &o.Target, &o.Problem,
		&o.Promise, &o.Features, &price, &o.Format, &o.Objections, &o.Guarantee, &o.CurrentStep,
		&o.IsValidated, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if price.Valid {
		o.Price = &price.Float64
	}
	o.Completion = scoring.Completion(o.CompletionFields())
	return &o, nil
}

func listOffers(ctx context.Context, db *sql.DB, workspaceID int64) ([]*models.Offer, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE workspace_id = ? ORDER BY created_at ASC, id ASC", workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := []*models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (h *Handlers) loadOffer(c *gin.Context) (*models.Offer, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	o, err := scanOffer(h.DB.QueryRowContext(c.Request.Context(),
		"SELECT "+offerColumns+" FROM offers WHERE id = ? AND workspace_id = ?", id, c.GetInt64("workspaceID")))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offre introuvable"})
		return nil, false
	}
	if err != nil {
		h.serverError(c, "load offer", err)
		return nil, false
	}
	return o, true
}

// nextSlug returns base, or base-2, base-3... the first one not taken.
func nextSlug(base string, taken map[string]bool) string {
	if base == "" {
		base = "offre"
	}
	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (h *Handlers) uniqueOfferSlug(ctx context.Context, workspaceID, exceptID int64, name string) (string, error) {
	base := slug.Make(name)
	rows, err := h.DB.QueryContext(ctx,
		"SELECT slug FROM offers WHERE workspace_id = ? AND id <> ? AND (slug = ? OR slug LIKE ?)",
		workspaceID, exceptID, base, base+"-%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	taken := map[string]bool{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", err
		}
		taken[s] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return nextSlug(base, taken), nil
}

// offerSlugAttempts bounds how many times a write is replayed when another
// request takes the computed slug between the lookup and the write.
const offerSlugAttempts = 3

// withOfferSlug computes a free slug for o and runs write, computing a new
// slug each time write hits the unique key.
func (h *Handlers) withOfferSlug(c *gin.Context, o *models.Offer, exceptID int64, write func() error) error {
	var err error
	for attempt := 1; attempt <= offerSlugAttempts; attempt++ {
		if o.Slug, err = h.uniqueOfferSlug(c.Request.Context(), o.WorkspaceID, exceptID, o.Name); err != nil {
			return fmt.Errorf("offer slug: %w", err)
		}
		if err = write(); !isDuplicate(err) {
			return err
		}
		h.Log.Debug("offer slug taken, retrying", zap.String("slug", o.Slug), zap.Int("attempt", attempt))
	}
	return err
}

func (h *Handlers) offerWriteError(c *gin.Context, op string, err error) {
	if isDuplicate(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Une autre offre vient de prendre ce nom, réessaie"})
		return
	}
	h.serverError(c, op, err)
}

// OfferInput is the body of the 7-step offer questionnaire.
type OfferInput struct {
	Name        string   `json:"name" binding:"required,max=255"`
	OfferType   string   `json:"offerType" binding:"omitempty,oneof=main entry free premium"`
	Target      string   `json:"target"`
	Problem     string   `json:"problem"`
	Promise     string   `json:"promise"`
	Features    []string `json:"features"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Format      string   `json:"format"`
	Objections  []string `json:"objections"`
	Guarantee   string   `json:"guarantee"`
	CurrentStep int      `json:"currentStep" binding:"omitempty,min=1,max=7"`
	IsValidated bool     `json:"isValidated"`
}

func (in *OfferInput) apply(o *models.Offer) {
	o.Name = strings.TrimSpace(in.Name)
	o.OfferType = in.OfferType
	if o.OfferType == "" {
		o.OfferType = "main"
	}
	o.Target = in.Target
	o.Problem = in.Problem
	o.Promise = in.Promise
	o.Features = models.StringList(in.Features)
	o.Price = in.Price
	o.Format = in.Format
	o.Objections = models.StringList(in.Objections)
	o.Guarantee = in.Guarantee
	o.CurrentStep = in.CurrentStep
	if o.CurrentStep == 0 {
		o.CurrentStep = 1
	}
	o.IsValidated = in.IsValidated
	o.Completion = scoring.Completion(o.CompletionFields())
}

// GetOffers is the handler for GET /v1/offers
func (h *Handlers) GetOffers(c *gin.Context) {
	offers, err := listOffers(c.Request.Context(), h.DB, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "list offers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// GetOffer is the handler for GET /v1/offers/:id
func (h *Handlers) GetOffer(c *gin.Context) {
	o, ok := h.loadOffer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": o})
}

// CreateOffer is the handler for POST /v1/offers
func (h *Handlers) CreateOffer(c *gin.Context) {
	var input OfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	o := &models.Offer{WorkspaceID: c.GetInt64("workspaceID")}
	input.apply(o)
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	var res sql.Result
	err := h.withOfferSlug(c, o, 0, func() error {
		var err error
		res, err = h.DB.ExecContext(ctx, `
			INSERT INTO offers (workspace_id, name, slug, offer_type, target, problem, promise, features,
				price, format, objections, guarantee, current_step, is_validated, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.WorkspaceID, o.Name, o.Slug, o.OfferType, o.Target, o.Problem, o.Promise, o.Features,
			o.Price, o.Format, o.Objections, o.Guarantee, o.CurrentStep, o.IsValidated, o.CreatedAt, o.UpdatedAt)
		return err
	})
	if err != nil {
		h.offerWriteError(c, "insert offer", err)
		return
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "offer id", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"offer": o})
}

// UpdateOffer is the handler for PUT /v1/offers/:id.
// The slug follows the name.
func (h *Handlers) UpdateOffer(c *gin.Context) {
	o, ok := h.loadOffer(c)
	if !ok {
		return
	}
	var input OfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	renamed := strings.TrimSpace(input.Name) != o.Name
	input.apply(o)
	o.UpdatedAt = time.Now()

	update := func() error {
		_, err := h.DB.ExecContext(ctx, `
			UPDATE offers SET name = ?, slug = ?, offer_type = ?, target = ?, problem = ?, promise = ?,
				features = ?, price = ?, format = ?, objections = ?, guarantee = ?, current_step = ?,
				is_validated = ?, updated_at = ?
			WHERE id = ? AND workspace_id = ?`,
			o.Name, o.Slug, o.OfferType, o.Target, o.Problem, o.Promise, o.Features, o.Price, o.Format,
			o.Objections, o.Guarantee, o.CurrentStep, o.IsValidated, o.UpdatedAt, o.ID, o.WorkspaceID)
		return err
	}
	var err error
	if renamed {
		err = h.withOfferSlug(c, o, o.ID, update)
	} else {
		err = update()
	}
	if err != nil {
		h.offerWriteError(c, "update offer", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offer": o})
}

// DeleteOffer is the handler for DELETE /v1/offers/:id
func (h *Handlers) DeleteOffer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM offers WHERE id = ? AND workspace_id = ?", id, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "delete offer", err)
		return
	}
	if h.notFoundIfNone(c, res, "Offre introuvable") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offre supprimée"})
}

// CoachOffer is the handler for POST /v1/offers/:id/coaching.
// The offer is reviewed by the offer-coaching function.
func (h *Handlers) CoachOffer(c *gin.Context) {
	o, ok := h.loadOffer(c)
	if !ok {
		return
	}

	input, err := json.Marshal(gin.H{"offre": o, "missing": scoring.Missing(o.CompletionFields())})
	if err != nil {
		h.serverError(c, "encode offer", err)
		return
	}
	result, ok := h.invokeAndRecord(c, "offer-coaching", input)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerId": o.ID, "coaching": result.Data, "tokens": result.Tokens})
}
