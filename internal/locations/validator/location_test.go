package validator

import (
	"testing"

	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/model"
)

func newTestValidator() *LocationValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewLocationValidator(log)
}

func TestValidate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		location model.Location
		wantErr  bool
	}{
		{
			name:     "valid location",
			location: model.Location{Name: "Central Garage", Address: "12 Main St", TotalSlots: 50},
			wantErr:  false,
		},
		{
			name:     "name too short",
			location: model.Location{Name: "C", Address: "12 Main St", TotalSlots: 50},
			wantErr:  true,
		},
		{
			name:     "missing address",
			location: model.Location{Name: "Central Garage", TotalSlots: 50},
			wantErr:  true,
		},
		{
			name:     "zero capacity",
			location: model.Location{Name: "Central Garage", Address: "12 Main St", TotalSlots: 0},
			wantErr:  true,
		},
		{
			name:     "capacity over limit",
			location: model.Location{Name: "Central Garage", Address: "12 Main St", TotalSlots: 10001},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.location)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateUpdate(&model.LocationUpdate{}); err != nil {
		t.Errorf("empty update should be valid: %v", err)
	}

	bad := 0
	if err := v.ValidateUpdate(&model.LocationUpdate{TotalSlots: &bad}); err == nil {
		t.Error("expected error for zero capacity")
	}

	short := "X"
	if err := v.ValidateUpdate(&model.LocationUpdate{Name: short}); err == nil {
		t.Error("expected error for short name")
	}
}
