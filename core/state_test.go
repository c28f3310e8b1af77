package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntoleranceSet_CaseInsensitive(t *testing.T) {
	s := NewSessionState("s1")
	s.AddIntolerances("lactosa", "Lactosa", "gluten", " ", "")
	assert.Equal(t, []string{"lactosa", "gluten"}, s.Intolerances)

	s.RemoveIntolerances("GLUTEN")
	assert.Equal(t, []string{"lactosa"}, s.Intolerances)
}

func TestForbiddenFoodSet(t *testing.T) {
	s := NewSessionState("s1")
	s.AddForbiddenFoods("milk", "cheese", "MILK")
	assert.Equal(t, []string{"milk", "cheese"}, s.ForbiddenFoods)
	s.RemoveForbiddenFoods("cheese", "yogurt")
	assert.Equal(t, []string{"milk"}, s.ForbiddenFoods)
}

func TestDietValidate(t *testing.T) {
	tests := []struct {
		name    string
		diet    Diet
		wantErr bool
	}{
		{
			name: "valid",
			diet: Diet{1: {"breakfast": {"oats": {Quantity: 80, Unit: UnitGram}}}},
		},
		{
			name:    "day out of range",
			diet:    Diet{8: {"breakfast": {"oats": {Quantity: 80, Unit: UnitGram}}}},
			wantErr: true,
		},
		{
			name:    "non-positive quantity",
			diet:    Diet{1: {"lunch": {"rice": {Quantity: 0, Unit: UnitGram}}}},
			wantErr: true,
		},
		{
			name:    "unknown unit",
			diet:    Diet{1: {"dinner": {"soup": {Quantity: 250, Unit: "cups"}}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.diet.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, FaultCollaborator, FaultOf(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSessionStateClone(t *testing.T) {
	s := NewSessionState("s1")
	s.AddIntolerances("lactosa")
	s.Diet = Diet{1: {"breakfast": {"oats": {Quantity: 80, Unit: UnitGram}}}}
	budget := 50.0
	s.Budget = &budget
	s.AppendMessage(Message{Role: RoleUser, Content: "hi"})

	clone := s.Clone()
	clone.AddIntolerances("gluten")
	clone.Diet[1]["breakfast"]["oats"] = Portion{Quantity: 100, Unit: UnitGram}
	*clone.Budget = 10
	clone.AppendMessage(Message{Role: RoleUser, Content: "more"})

	assert.Equal(t, []string{"lactosa"}, s.Intolerances)
	assert.Equal(t, 80.0, s.Diet[1]["breakfast"]["oats"].Quantity)
	assert.Equal(t, 50.0, *s.Budget)
	assert.Len(t, s.Messages, 1)
}

func TestFaultTaxonomy(t *testing.T) {
	err := Errorf(FaultChunkGap, "chunk %d missing", 2)
	assert.Equal(t, FaultChunkGap, FaultOf(err))
	assert.Contains(t, err.Error(), "chunk_gap")

	wrapped := Wrap(FaultPersistence, err)
	assert.Equal(t, FaultPersistence, FaultOf(wrapped))
	assert.Nil(t, Wrap(FaultPersistence, nil))
	assert.Equal(t, Fault(""), FaultOf(nil))
}
