// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartermasterhq/quartermaster/internal/models"
)

func TestValidateStructPasses(t *testing.T) {
	asset := models.Asset{
		Name:      "Extension Ladder",
		Category:  "ladders",
		Condition: models.ConditionGood,
		CompanyID: "c1",
	}
	assert.Nil(t, ValidateStruct(&asset))
}

func TestValidateStructMissingRequired(t *testing.T) {
	err := ValidateStruct(&models.Asset{Category: "ladders"})
	require.NotNil(t, err)

	fields := err.Fields()
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "CompanyID")
	assert.NotContains(t, fields, "Category")
	assert.Contains(t, err.Error(), "Name is required")
}

func TestValidateStructBadEnum(t *testing.T) {
	err := ValidateStruct(&models.Asset{
		Name:      "Drill",
		Category:  "tools",
		Condition: "mint",
		CompanyID: "c1",
	})
	require.NotNil(t, err)
	require.Len(t, err.Errors(), 1)
	assert.Equal(t, "Condition", err.Errors()[0].Field())
	assert.Equal(t, "oneof", err.Errors()[0].Tag())
}
