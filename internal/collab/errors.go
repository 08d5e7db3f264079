// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package collab

import qnserrors "grimm.is/qns/internal/errors"

var errPacketLoss = qnserrors.New(qnserrors.KindUnavailable, "collab: ping packet loss")
