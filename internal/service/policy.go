package service

import "realty/api/internal/models"

// CanView: approved listings are public; pending ones belong to their owner and admins.
func CanView(l models.Listing, caller *models.User) error {
	if l.Approved {
		return nil
	}
	if caller != nil && (caller.IsAdmin || caller.ID == l.UserID) {
		return nil
	}
	return ErrForbidden
}

func CanModify(l models.Listing, caller models.User) error {
	if caller.IsAdmin || caller.ID == l.UserID {
		return nil
	}
	return ErrForbidden
}

func CanModerate(caller models.User) error {
	if caller.IsAdmin {
		return nil
	}
	return ErrForbidden
}

func CanCreate(caller models.User) error {
	if !caller.IsVerified {
		return ErrUnverified
	}
	return nil
}
