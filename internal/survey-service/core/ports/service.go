package ports

import (
	"context"

	"transit-mapper/internal/survey-service/core/domain/dto"
)

type ITripService interface {
	CreateTrip(ctx context.Context, mapperID string, req dto.CreateTripRequestDto) (dto.TripResponseDto, error)
	GetTrip(ctx context.Context, tripID string) (dto.TripWithStopsResponseDto, error)
	ListTrips(ctx context.Context, mapperID string) ([]dto.TripResponseDto, error)

	StartTrip(ctx context.Context, mapperID, tripID string, req dto.StartTripRequestDto) (dto.TripResponseDto, error)
	CompleteTrip(ctx context.Context, mapperID, tripID string, req dto.CompleteTripRequestDto) (dto.TripResponseDto, error)
	CancelTrip(ctx context.Context, mapperID, tripID string, req dto.CancelTripRequestDto) (dto.TripResponseDto, error)
}

type ILedgerService interface {
	AddStops(ctx context.Context, mapperID, tripID string, req dto.AddStopsRequest) (dto.AddStopsResponseDto, error)
	UpdateStop(ctx context.Context, mapperID, tripID, stopID string, req dto.UpdateStopRequest) (dto.UpdateStopResponseDto, error)
	DeleteStop(ctx context.Context, mapperID, tripID, stopID string) (dto.TripResponseDto, error)
}

type ISplitService interface {
	DuplicateTrip(ctx context.Context, mapperID, tripID string, req dto.DuplicateTripRequestDto) (dto.DuplicateTripResponseDto, error)
	SplitTrip(ctx context.Context, mapperID, tripID string, req dto.SplitTripRequestDto) (dto.SplitTripResponseDto, error)
}
