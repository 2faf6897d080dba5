package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolbook/schoolbook/core"
	"github.com/schoolbook/schoolbook/internal/logger"
	"github.com/schoolbook/schoolbook/ports"
)

const (
	maxNameLength    = 250
	minContactDigits = 10
	maxContactDigits = 15
)

// SchoolService registers schools and serves the browse listing.
type SchoolService struct {
	store  ports.SchoolStore
	images ports.ImageStore
	log    *zap.Logger
}

// NewSchoolService creates a school service.
func NewSchoolService(store ports.SchoolStore, images ports.ImageStore) *SchoolService {
	return &SchoolService{
		store:  store,
		images: images,
		log:    logger.Named("schools"),
	}
}

// AddSchoolInput carries the registration form fields plus the image bytes.
type AddSchoolInput struct {
	Name    string
	Address string
	City    string
	State   string
	Contact string
	Email   string

	ImageName string
	Image     io.Reader
}

// AddSchool validates the form, uploads the image and inserts the record.
// The image is uploaded first; if the host rejects it no row is written.
func (s *SchoolService) AddSchool(ctx context.Context, in AddSchoolInput) (int64, error) {
	if err := validateSchool(in); err != nil {
		return 0, err
	}

	imageURL, err := s.images.Upload(ctx, in.ImageName, in.Image)
	if err != nil {
		s.log.Warn("image upload failed", zap.String("file", in.ImageName), zap.Error(err))
		return 0, err
	}

	id, err := s.store.CreateSchool(ctx, &core.School{
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Contact: in.Contact,
		Image:   imageURL,
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
	})
	if err != nil {
		s.log.Error("failed to persist school", zap.Error(err))
		return 0, core.ErrStoreFailed
	}
	return id, nil
}

// ListSchools returns the public browse listing, newest first.
func (s *SchoolService) ListSchools(ctx context.Context) ([]core.School, error) {
	list, err := s.store.ListSchools(ctx)
	if err != nil {
		s.log.Error("failed to list schools", zap.Error(err))
		return nil, core.ErrStoreFailed
	}
	if list == nil {
		list = []core.School{}
	}
	return list, nil
}

// validateSchool mirrors the registration form rules: every field required,
// name capped at 250 chars, contact 10-15 digits, syntactically valid email.
func validateSchool(in AddSchoolInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: name is required and must be at most %d characters", core.ErrInvalidInput, maxNameLength)
	}
	if strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("%w: address is required", core.ErrInvalidInput)
	}
	if strings.TrimSpace(in.City) == "" {
		return fmt.Errorf("%w: city is required", core.ErrInvalidInput)
	}
	if strings.TrimSpace(in.State) == "" {
		return fmt.Errorf("%w: state is required", core.ErrInvalidInput)
	}
	if !isDigits(in.Contact) || len(in.Contact) < minContactDigits || len(in.Contact) > maxContactDigits {
		return fmt.Errorf("%w: contact must be %d-%d digits", core.ErrInvalidInput, minContactDigits, maxContactDigits)
	}
	if _, err := normalizeEmail(in.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", core.ErrInvalidInput)
	}
	if in.Image == nil {
		return fmt.Errorf("%w: image is required", core.ErrInvalidInput)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
