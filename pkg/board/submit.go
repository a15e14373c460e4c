package board

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/models"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Form holds the user-entered values of a new listing. Price is kept as the
// raw text the user typed.
type Form struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Price       string `mapstructure:"price"`
	ImageURL    string `mapstructure:"image_url"`
}

// FormFromValues binds a field map (as produced by a form or query string)
// to a Form. Unknown keys are rejected.
func FormFromValues(values map[string]string) (*Form, error) {
	var form Form
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &form,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create form decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid form values")
	}
	return &form, nil
}

// Set binds one named field.
func (f *Form) Set(field, value string) error {
	switch field {
	case "title":
		f.Title = value
	case "description":
		f.Description = value
	case "price":
		f.Price = value
	case "image_url", "imageRef":
		f.ImageURL = value
	default:
		return errors.InvalidInput(field, "is not a form field")
	}
	return nil
}

// Validate enforces the fields required at submission time.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return errors.InvalidInput("title", "is required")
	}
	if strings.TrimSpace(f.Description) == "" {
		return errors.InvalidInput("description", "is required")
	}
	return nil
}

// Item builds the item to submit: id unset, price parsed from text.
func (f *Form) Item() models.Item {
	return models.Item{
		ID:          0,
		Title:       f.Title,
		Description: f.Description,
		Price:       ParsePrice(f.Price),
		ImageURL:    f.ImageURL,
	}
}

// Reset clears every field.
func (f *Form) Reset() {
	*f = Form{}
}

// ParsePrice converts price text to a number. Anything that is not a finite,
// non-negative number becomes 0; validation belongs to the store.
func ParsePrice(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Submitter sends locally created items to the store. It never touches a
// View: the created item comes back over the push channel.
type Submitter struct {
	creator Creator
	logger  *logrus.Entry
}

// NewSubmitter creates a submitter.
func NewSubmitter(creator Creator, logger *logrus.Entry) *Submitter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Submitter{creator: creator, logger: logger}
}

// Submit validates the form and sends a create request. The form is cleared
// only once the store acknowledged the request; on failure it keeps the
// user's input and the error is logged and returned.
func (s *Submitter) Submit(ctx context.Context, form *Form) error {
	if err := form.Validate(); err != nil {
		return err
	}

	item := form.Item()
	if err := s.creator.CreateItem(ctx, item); err != nil {
		s.logger.WithError(err).WithField("title", item.Title).Error("Failed to submit listing")
		return err
	}

	s.logger.WithField("title", item.Title).Info("Listing submitted")
	form.Reset()
	return nil
}
