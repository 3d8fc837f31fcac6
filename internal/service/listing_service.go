package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"realty/api/internal/metrics"
	"realty/api/internal/models"
	"realty/api/internal/store"
)

type ListingInput struct {
	Title        string
	Description  string
	ListingType  models.ListingType
	PropertyType models.PropertyType
	Region       string
	City         string
	District     string
	Address      string
	Price        int64
	Area         float64
	Rooms        int
	Photos       []string
}

// ListingService owns the moderation lifecycle of listings:
// create → pending, approve → approved, reject → deleted, and an owner edit
// sends an approved listing back to pending.
type ListingService struct {
	store *store.Store
	log   zerolog.Logger
}

func NewListingService(st *store.Store, log zerolog.Logger) *ListingService {
	return &ListingService{store: st, log: log}
}

func (s *ListingService) Create(_ context.Context, ownerID int64, in ListingInput) (models.Listing, error) {
	owner, err := s.store.GetUser(ownerID)
	if err != nil {
		return models.Listing{}, err
	}
	if err := CanCreate(owner); err != nil {
		return models.Listing{}, err
	}
	if err := validateInput(in); err != nil {
		return models.Listing{}, err
	}

	listing := s.store.CreateListing(models.Listing{
		UserID:       owner.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		ListingType:  in.ListingType,
		PropertyType: in.PropertyType,
		Region:       in.Region,
		City:         in.City,
		District:     in.District,
		Address:      in.Address,
		Price:        in.Price,
		Area:         in.Area,
		Rooms:        in.Rooms,
		Photos:       in.Photos,
	})

	s.log.Info().Int64("listing_id", listing.ID).Int64("user_id", owner.ID).Msg("listing created")
	return listing, nil
}

// Get returns a listing if caller may see it. caller is nil for anonymous requests.
func (s *ListingService) Get(_ context.Context, id int64, caller *models.User) (models.Listing, error) {
	listing, err := s.store.GetListing(id)
	if err != nil {
		return models.Listing{}, err
	}
	if err := CanView(listing, caller); err != nil {
		return models.Listing{}, err
	}
	return listing, nil
}

// ListApproved applies c to approved listings only, in creation order.
func (s *ListingService) ListApproved(_ context.Context, c Criteria) []models.Listing {
	return s.store.ListListings(func(l models.Listing) bool {
		return l.Approved && c.Matches(l)
	})
}

// Search parses raw query parameters and runs ListApproved.
func (s *ListingService) Search(ctx context.Context, values url.Values) []models.Listing {
	return s.ListApproved(ctx, ParseCriteria(values))
}

func (s *ListingService) ListPending(_ context.Context, caller models.User) ([]models.Listing, error) {
	if err := CanModerate(caller); err != nil {
		return nil, err
	}
	return s.store.ListListings(func(l models.Listing) bool { return !l.Approved }), nil
}

// ListByOwner includes pending listings; callers only expose it for the owner.
func (s *ListingService) ListByOwner(_ context.Context, ownerID int64) []models.Listing {
	return s.store.ListListings(func(l models.Listing) bool { return l.UserID == ownerID })
}

// Update merges patch into the listing. An edit by a non-admin owner resets
// approval; admin edits leave it as is. Approval itself cannot be patched.
func (s *ListingService) Update(_ context.Context, id int64, caller models.User, patch models.ListingPatch) (models.Listing, error) {
	patch.Approved = nil

	reset := false
	listing, err := s.store.MutateListing(id, func(l *models.Listing) error {
		if err := CanModify(*l, caller); err != nil {
			return err
		}
		if err := validatePatch(patch); err != nil {
			return err
		}
		store.ApplyListingPatch(l, patch)
		if !caller.IsAdmin && l.Approved {
			l.Approved = false
			reset = true
		}
		return nil
	})
	if err != nil {
		return models.Listing{}, err
	}

	if reset {
		metrics.ObserveModeration("reset")
		s.log.Info().Int64("listing_id", id).Msg("owner edit returned listing to moderation")
	}
	return listing, nil
}

// AttachPhotos appends photo URLs with the same rules as Update.
func (s *ListingService) AttachPhotos(ctx context.Context, id int64, caller models.User, urls []string) (models.Listing, error) {
	return s.Update(ctx, id, caller, models.ListingPatch{AppendPhotos: urls})
}

func (s *ListingService) Delete(_ context.Context, id int64, caller models.User) error {
	_, err := s.store.DeleteListingIf(id, func(l models.Listing) error {
		return CanModify(l, caller)
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("listing_id", id).Int64("user_id", caller.ID).Msg("listing deleted")
	return nil
}

func (s *ListingService) Approve(_ context.Context, id int64, caller models.User) (models.Listing, error) {
	if err := CanModerate(caller); err != nil {
		return models.Listing{}, err
	}

	approved := true
	listing, err := s.store.UpdateListing(id, models.ListingPatch{Approved: &approved})
	if err != nil {
		return models.Listing{}, err
	}

	metrics.ObserveModeration("approve")
	s.log.Info().Int64("listing_id", id).Int64("admin_id", caller.ID).Msg("listing approved")
	return listing, nil
}

// Reject removes the listing outright along with its favorites. The log line
// is the only remaining record of it.
func (s *ListingService) Reject(_ context.Context, id int64, caller models.User) error {
	if err := CanModerate(caller); err != nil {
		return err
	}

	removed, err := s.store.DeleteListingIf(id, nil)
	if err != nil {
		return err
	}

	metrics.ObserveModeration("reject")
	s.log.Info().
		Int64("listing_id", removed.ID).
		Int64("owner_id", removed.UserID).
		Int64("admin_id", caller.ID).
		Str("title", removed.Title).
		Bool("was_approved", removed.Approved).
		Msg("listing rejected")
	return nil
}

// ToggleFavorite adds or removes a favorite. Adding requires a listing the caller can see.
func (s *ListingService) ToggleFavorite(ctx context.Context, caller models.User, listingID int64, on bool) error {
	if !on {
		s.store.RemoveFavorite(caller.ID, listingID)
		return nil
	}
	if _, err := s.Get(ctx, listingID, &caller); err != nil {
		return err
	}
	return s.store.AddFavorite(caller.ID, listingID)
}

func (s *ListingService) IsFavorite(_ context.Context, callerID int64, listingID int64) bool {
	return s.store.IsFavorite(callerID, listingID)
}

func (s *ListingService) Favorites(_ context.Context, caller models.User) []models.Listing {
	return s.store.ListFavorites(caller.ID)
}

func validateInput(in ListingInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return validationError("title is required")
	}
	if !in.ListingType.Valid() {
		return validationError("unknown listing type %q", in.ListingType)
	}
	if !in.PropertyType.Valid() {
		return validationError("unknown property type %q", in.PropertyType)
	}
	if strings.TrimSpace(in.City) == "" {
		return validationError("city is required")
	}
	return validateNumbers(&in.Price, &in.Area, &in.Rooms, in.Photos)
}

func validatePatch(p models.ListingPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return validationError("title is required")
	}
	if p.ListingType != nil && !p.ListingType.Valid() {
		return validationError("unknown listing type %q", *p.ListingType)
	}
	if p.PropertyType != nil && !p.PropertyType.Valid() {
		return validationError("unknown property type %q", *p.PropertyType)
	}
	if p.City != nil && strings.TrimSpace(*p.City) == "" {
		return validationError("city is required")
	}
	if err := validateNumbers(p.Price, p.Area, p.Rooms, p.Photos); err != nil {
		return err
	}
	return validatePhotos(p.AppendPhotos)
}

func validateNumbers(price *int64, area *float64, rooms *int, photos []string) error {
	if price != nil && *price <= 0 {
		return validationError("price must be positive")
	}
	if area != nil && !(*area > 0) {
		return validationError("area must be positive")
	}
	if rooms != nil && *rooms < 0 {
		return validationError("rooms must not be negative")
	}
	return validatePhotos(photos)
}

func validatePhotos(photos []string) error {
	for _, raw := range photos {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return validationError("invalid photo url %q", raw)
		}
	}
	return nil
}
