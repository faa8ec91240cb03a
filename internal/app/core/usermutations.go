package core

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/circlehub/internal/app/store/users"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.uber.org/zap"
)

// RegisterUser creates the user document for a freshly authenticated
// identity. email comes from the identity provider.
func (c *Coordinator) RegisterUser(ctx context.Context, actorID, email string, p models.Profile) (models.User, error) {
	p, err := cleanProfile(p)
	if err != nil {
		return models.User{}, err
	}
	u, err := c.st.Users.Create(ctx, models.User{
		ID:      actorID,
		Profile: p,
		Email:   normalize.Email(email),
	})
	if errors.Is(err, userstore.ErrDuplicateUser) {
		return models.User{}, apperr.Conflict(apperr.CodeAlreadyRegistered, "user is already registered")
	}
	if err != nil {
		return models.User{}, apperr.Upstream("creating user", err)
	}
	c.log.Info("user registered", zap.String("user_id", actorID))
	return u, nil
}

// GetUser returns the actor's user document.
func (c *Coordinator) GetUser(ctx context.Context, actorID string) (models.User, error) {
	u, err := c.st.Users.GetByID(ctx, actorID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "user"), apperr.KindNotFound) {
			return models.User{}, apperr.NotFound("user is not registered").WithCode(apperr.CodeNotRegistered)
		}
		return models.User{}, apperr.Upstream("loading user", err)
	}
	return u, nil
}

// UpdateProfile replaces the actor's profile fields. Email is never changed.
func (c *Coordinator) UpdateProfile(ctx context.Context, actorID string, p models.Profile) (models.User, error) {
	p, err := cleanProfile(p)
	if err != nil {
		return models.User{}, err
	}
	u, err := c.st.Users.UpdateProfile(ctx, actorID, p)
	if err != nil {
		return models.User{}, apperr.FromStore(err, "user")
	}
	return u, nil
}
