package app

import (
	"context"
	"errors"

	"campusnet/internal/models"
)

// SignIn authenticates against the identity provider, installs the session,
// and bootstraps the content store.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if c.auth == nil {
		return models.NewInternalError(errors.New("no identity provider configured"))
	}
	sess, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	c.gate.Set(sess)
	return c.Bootstrap(ctx)
}

// SignUp registers a new identity, installs the returned session, and
// bootstraps the content store.
func (c *Controller) SignUp(ctx context.Context, email, password, name string) error {
	if c.auth == nil {
		return models.NewInternalError(errors.New("no identity provider configured"))
	}
	sess, err := c.auth.SignUp(ctx, email, password, name)
	if err != nil {
		return err
	}
	c.gate.Set(sess)
	return c.Bootstrap(ctx)
}

// SignOut revokes the session. Cached state is cleared by the gate listener
// even when revocation fails remotely.
func (c *Controller) SignOut(ctx context.Context) error {
	var err error
	if c.auth != nil {
		err = c.auth.SignOut(ctx)
	}
	c.gate.Clear()
	return err
}
