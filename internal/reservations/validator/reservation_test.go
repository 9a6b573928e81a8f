package validator

import (
	"testing"
	"time"

	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/model"
)

func newTestValidator() *ReservationValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationValidator(log)
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     model.ReservationRequest
		wantErr bool
	}{
		{
			name: "valid request",
			req: model.ReservationRequest{
				SlotID:    "507f1f77bcf86cd799439011",
				StartTime: start,
				EndTime:   start.Add(time.Hour),
			},
			wantErr: false,
		},
		{
			name: "valid request with plate",
			req: model.ReservationRequest{
				SlotID:       "507f1f77bcf86cd799439011",
				StartTime:    start,
				EndTime:      start.Add(time.Hour),
				VehiclePlate: "AB123CD",
			},
			wantErr: false,
		},
		{
			name: "missing slot",
			req: model.ReservationRequest{
				StartTime: start,
				EndTime:   start.Add(time.Hour),
			},
			wantErr: true,
		},
		{
			name: "malformed slot id",
			req: model.ReservationRequest{
				SlotID:    "not-an-object-id",
				StartTime: start,
				EndTime:   start.Add(time.Hour),
			},
			wantErr: true,
		},
		{
			name: "end before start",
			req: model.ReservationRequest{
				SlotID:    "507f1f77bcf86cd799439011",
				StartTime: start,
				EndTime:   start.Add(-time.Hour),
			},
			wantErr: true,
		},
		{
			name: "end equals start",
			req: model.ReservationRequest{
				SlotID:    "507f1f77bcf86cd799439011",
				StartTime: start,
				EndTime:   start,
			},
			wantErr: true,
		},
		{
			name: "plate with lowercase rejected",
			req: model.ReservationRequest{
				SlotID:       "507f1f77bcf86cd799439011",
				StartTime:    start,
				EndTime:      start.Add(time.Hour),
				VehiclePlate: "ab123cd",
			},
			wantErr: true,
		},
		{
			name: "plate too short",
			req: model.ReservationRequest{
				SlotID:       "507f1f77bcf86cd799439011",
				StartTime:    start,
				EndTime:      start.Add(time.Hour),
				VehiclePlate: "A",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(&tt.req)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := newTestValidator()

	for _, status := range []model.ReservationStatus{
		model.StatusPending, model.StatusConfirmed, model.StatusCancelled,
		model.StatusCompleted, model.StatusExpired,
	} {
		if err := v.ValidateStatusUpdate(&model.ReservationStatusUpdate{Status: status}); err != nil {
			t.Errorf("%s: unexpected error: %v", status, err)
		}
	}

	if err := v.ValidateStatusUpdate(&model.ReservationStatusUpdate{Status: "BOOKED"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if err := v.ValidateStatusUpdate(&model.ReservationStatusUpdate{}); err == nil {
		t.Error("expected error for empty status")
	}
}
