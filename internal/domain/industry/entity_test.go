package industry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

func TestCriteriaSubset(t *testing.T) {
	assert.True(t, CriteriaSubset(nil, nil))
	assert.True(t, CriteriaSubset([]int64{1, 3}, []int64{1, 2, 3}))
	assert.True(t, CriteriaSubset([]int64{2, 2}, []int64{2}))
	assert.False(t, CriteriaSubset([]int64{1, 4}, []int64{1, 2, 3}))
	assert.False(t, CriteriaSubset([]int64{1}, nil))
}

func TestSubIndustry_BelongsTo(t *testing.T) {
	s := &SubIndustry{IndustryID: 7}
	assert.True(t, s.BelongsTo(7))
	assert.False(t, s.BelongsTo(8))
}

func TestIndustry_Validate(t *testing.T) {
	i := &Industry{Name: "  Медицина  "}
	assert.NoError(t, i.Validate())
	assert.Equal(t, "Медицина", i.Name)

	i = &Industry{Name: "   "}
	assert.True(t, shared.IsValidation(i.Validate()))

	i = &Industry{Name: strings.Repeat("a", MaxNameLength+1)}
	assert.True(t, shared.IsValidation(i.Validate()))
}
