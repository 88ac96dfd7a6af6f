package core

import (
	"context"

	"eventreg/entity"
	"eventreg/lib/apperr"
	"eventreg/lib/sl"
)

func (c *Core) Profile(ctx context.Context, user *entity.User, submitterID string) (*entity.Profile, error) {
	if err := requireOwner(user, submitterID); err != nil {
		return nil, c.failed("profile", err)
	}
	if c.directory == nil {
		return nil, c.failed("profile", apperr.New(apperr.CodeStorage, "directory service not connected"))
	}
	profile, err := c.directory.Profile(ctx, submitterID)
	if err != nil {
		return nil, c.failed("profile", err, sl.Submitter(submitterID))
	}
	return profile, nil
}
