// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// CheckReadAccess enforces per-object ownership on single-visit reads.
//
// Access is granted to the worker who created the visit and to any ADMIN.
// Every read path that exposes a single visit's clinical content goes through here.
func CheckReadAccess(principal sec.Principal, v *Visit) error {
	if principal.Role.IsElevated() || principal.Username == v.OwnerUsername {
		return nil
	}
	return apperr.AccessDenied("You do not have access to this visit")
}
