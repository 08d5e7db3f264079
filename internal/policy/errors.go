// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import qnserrors "grimm.is/qns/internal/errors"

var errEmptyThresholdGroup = qnserrors.New(qnserrors.KindValidation, "policy: threshold group must be non-empty")
