package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/validation"
	"gorm.io/gorm"
)

// ClientInput is the editable part of a client.
type ClientInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (in ClientInput) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.MaxLength("name", in.Name, 255, v)
	validation.MaxLength("phone", in.Phone, 50, v)
	validation.Email("email", strings.TrimSpace(in.Email), v)
	return v
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
}

// ClientList is one page of clients.
type ClientList struct {
	Items []models.Client `json:"items"`
	Total int64           `json:"total"`
}

// ClientService is the tenant-scoped client book.
type ClientService struct {
	store
	gate *policy.AuthGate
}

func NewClientService(db *gorm.DB, g *policy.AuthGate, opts Options) *ClientService {
	return &ClientService{store: newStore(db, opts), gate: g}
}

func (s *ClientService) Create(ctx context.Context, userID uint, in ClientInput) (*models.Client, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionCreate, policy.ResourceClient)
	if err != nil {
		return nil, err
	}
	c := models.Client{EstablishmentID: actor.EstablishmentID}
	in.apply(&c)
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Create(&c).Error; err != nil {
		return nil, storeError("create client", err)
	}
	return &c, nil
}

// List pages the actor's clients. q matches name, phone or email.
func (s *ClientService) List(ctx context.Context, userID uint, q string, page Page) (*ClientList, error) {
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionList, policy.ResourceClient)
	if err != nil {
		return nil, err
	}
	page = page.normalized()
	db, cancel := s.conn(ctx)
	defer cancel()

	query := db.Model(&models.Client{}).Where("establishment_id = ?", actor.EstablishmentID)
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where("(lower(name) LIKE ? ESCAPE '\\' OR lower(phone) LIKE ? ESCAPE '\\' OR lower(email) LIKE ? ESCAPE '\\')", like, like, like)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError("count clients", err)
	}
	items := make([]models.Client, 0)
	if err := query.Order("name ASC, id ASC").Limit(page.Limit).Offset(page.Offset).Find(&items).Error; err != nil {
		return nil, storeError("list clients", err)
	}
	return &ClientList{Items: items, Total: total}, nil
}

func (s *ClientService) Get(ctx context.Context, userID, clientID uint) (*models.Client, error) {
	c, _, err := s.authorized(ctx, userID, clientID, gate.ActionView)
	return c, err
}

// Update edits a client. Its establishment never changes.
func (s *ClientService) Update(ctx context.Context, userID, clientID uint, in ClientInput) (*models.Client, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	c, _, err := s.authorized(ctx, userID, clientID, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	c.UpdatedAt = s.now()
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Model(c).Select("name", "phone", "email", "updated_at").Updates(c).Error; err != nil {
		return nil, storeError("update client", err)
	}
	return c, nil
}

// Delete removes a client. Its repairs are kept and detached; a client with
// quotes cannot be deleted.
func (s *ClientService) Delete(ctx context.Context, userID, clientID uint) error {
	c, _, err := s.authorized(ctx, userID, clientID, gate.ActionDelete)
	if err != nil {
		return err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	err = db.Transaction(func(tx *gorm.DB) error {
		var quotes int64
		if err := tx.Model(&models.Quote{}).Where("client_id = ?", c.ID).Count(&quotes).Error; err != nil {
			return err
		}
		if quotes > 0 {
			return fmt.Errorf("%w: client has %d quote(s)", models.ErrConflict, quotes)
		}
		if err := tx.Model(&models.Repair{}).
			Where("client_id = ? AND establishment_id = ?", c.ID, c.EstablishmentID).
			Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Client{}, c.ID).Error
	})
	return storeError("delete client", err)
}

func (s *ClientService) authorized(ctx context.Context, userID, clientID uint, action gate.Action) (*models.Client, policy.Actor, error) {
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	var c models.Client
	if err := db.First(&c, clientID).Error; err != nil {
		return nil, policy.Actor{}, storeError("load client", err)
	}
	if err := s.gate.Authorize(ctx, actor, action, policy.ResourceClient, &c); err != nil {
		return nil, policy.Actor{}, err
	}
	return &c, actor, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
