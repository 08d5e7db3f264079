// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("IMS"))
	assert.Error(t, ValidateIdentifier(""))
	assert.Error(t, ValidateIdentifier("bad;rm -rf"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "rm -rf whoami", SanitizeString("rm -rf `whoami`"))
}
