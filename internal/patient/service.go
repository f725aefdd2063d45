// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taibuivan/ashaassist/internal/platform/dberr"
)

// Service implements patient lookups for the field app.
type Service struct {
	repository Repository
}

// NewService constructs a new [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Exists reports whether a patient is registered under the phone number.
//
// The field app calls this before starting a visit to decide whether to
// show the new-patient form.
func (service *Service) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	_, err := service.repository.FindByPhone(ctx, strings.TrimSpace(phoneNumber))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, dberr.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("patient_service_exists_failed: %w", err)
	}
}
