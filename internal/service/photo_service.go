package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/rs/zerolog"

	"realty/api/internal/config"
	"realty/api/internal/ids"
	"realty/api/internal/media/sniffer"
	"realty/api/internal/models"
)

// PhotoStore is the object storage the photos land in.
type PhotoStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

type PhotoInput struct {
	Caller    models.User
	ListingID int64
	File      multipart.File
	Header    *multipart.FileHeader
}

type PhotoService struct {
	listings *ListingService
	store    PhotoStore
	maxSize  int64
	log      zerolog.Logger
}

func NewPhotoService(listings *ListingService, store PhotoStore, cfg *config.AppConfig, log zerolog.Logger) *PhotoService {
	return &PhotoService{
		listings: listings,
		store:    store,
		maxSize:  cfg.Storage.MaxPhotoSize,
		log:      log,
	}
}

// Upload stores one photo and appends its URL to the listing. Permission is
// checked before anything is written to storage.
func (s *PhotoService) Upload(ctx context.Context, input PhotoInput) (models.Listing, error) {
	if input.File == nil || input.Header == nil {
		return models.Listing{}, validationError("photo file required")
	}

	current, err := s.listings.Get(ctx, input.ListingID, &input.Caller)
	if err != nil {
		return models.Listing{}, err
	}
	if err := CanModify(current, input.Caller); err != nil {
		return models.Listing{}, err
	}

	data, err := s.read(input.File)
	if err != nil {
		return models.Listing{}, err
	}

	detected, err := sniffer.Detect(data)
	if err != nil {
		return models.Listing{}, validationError("%v", err)
	}
	if declared := sniffer.DeclaredMIME(http.Header(input.Header.Header)); declared != "" && declared != "application/octet-stream" && declared != detected.MIME {
		return models.Listing{}, validationError("content type mismatch: declared %s, actual %s", declared, detected.MIME)
	}

	key := buildObjectKey(input.ListingID, detected.Extension())
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), detected.MIME)
	if err != nil {
		return models.Listing{}, fmt.Errorf("store photo: %w", err)
	}

	listing, err := s.listings.AttachPhotos(ctx, input.ListingID, input.Caller, []string{url})
	if err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", key).Msg("remove orphaned photo failed")
		}
		return models.Listing{}, err
	}

	s.log.Info().Int64("listing_id", listing.ID).Str("key", key).Msg("photo attached")
	return listing, nil
}

func (s *PhotoService) read(file io.Reader) ([]byte, error) {
	limit := s.maxSize
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return nil, validationError("empty file")
	}
	if int64(len(data)) > limit {
		return nil, validationError("photo exceeds %d bytes", limit)
	}
	return data, nil
}

func buildObjectKey(listingID int64, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join("listings", fmt.Sprint(listingID), datePrefix, ids.New()+"."+ext)
}
